package docs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const docsRsBaseURL = "https://docs.rs"

// Fetcher downloads rustdoc JSON builds from docs.rs.
type Fetcher struct {
	client  *http.Client
	baseURL string
}

type FetcherOption func(*Fetcher)

// WithBaseURL points the fetcher at a docs.rs mirror.
func WithBaseURL(u string) FetcherOption {
	return func(f *Fetcher) { f.baseURL = strings.TrimSuffix(u, "/") }
}

// NewFetcher returns a Fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration, opts ...FetcherOption) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	f := &Fetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: docsRsBaseURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchRustdocJSON downloads the rustdoc JSON of a crate from docs.rs.
// The version "latest" is resolved by docs.rs via redirect. The body is
// returned as served (zstd-compressed); Parse accepts it directly.
func (f *Fetcher) FetchRustdocJSON(ctx context.Context, name, version string) ([]byte, error) {
	if version == "" {
		version = "latest"
	}

	url := fmt.Sprintf("%s/crate/%s/%s/json", f.baseURL, name, version)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "ferrisdoc/0.1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("docs.rs returned %d for %s/%s: %s", resp.StatusCode, name, version, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rustdoc JSON: %w", err)
	}
	return data, nil
}
