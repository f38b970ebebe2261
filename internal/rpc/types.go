package rpc

import (
	"github.com/jcdickinson/ferrisdoc/internal/docs"
	"github.com/jcdickinson/ferrisdoc/internal/extract"
)

// ExtractRequest is the argument object of the extract_docs tool.
type ExtractRequest struct {
	Crate      string `json:"crate,omitempty"`
	Version    string `json:"version,omitempty"`
	Index      string `json:"index,omitempty"`
	Path       string `json:"path"`
	Kind       string `json:"kind,omitempty"`
	Recursive  bool   `json:"recursive,omitempty"`
	PublicOnly *bool  `json:"public_only,omitempty"`
	Fetch      bool   `json:"fetch,omitempty"`
}

// ExtractResponse is the output of a single extraction, both for
// `extract --json` and the extract_docs tool.
type ExtractResponse struct {
	Crate   string       `json:"crate"`
	Version string       `json:"version,omitempty"`
	Path    string       `json:"path"`
	Kind    docs.Kind    `json:"kind"`
	Entries []docs.Entry `json:"entries"`
}

// BatchResult is one job of `batch --json`.
type BatchResult struct {
	ExtractResponse
	Error string `json:"error,omitempty"`
}

// FetchRequest is the argument object of the fetch_index tool.
type FetchRequest struct {
	Crate   string `json:"crate"`
	Version string `json:"version,omitempty"`
}

type FetchResponse struct {
	Crate   string `json:"crate"`
	Version string `json:"version"`
	Path    string `json:"path"`
}

// Job converts the request into an extraction job. publicOnly applies when
// the request leaves it unset.
func (r ExtractRequest) Job(publicOnly bool) (extract.Job, error) {
	kind, err := docs.ParseKind(r.Kind)
	if err != nil {
		return extract.Job{}, err
	}
	if r.PublicOnly != nil {
		publicOnly = *r.PublicOnly
	}
	return extract.Job{
		Index:   r.Index,
		Crate:   r.Crate,
		Version: r.Version,
		Fetch:   r.Fetch,
		Query: docs.Query{
			Path:       r.Path,
			Kind:       kind,
			Recursive:  r.Recursive,
			PublicOnly: publicOnly,
		},
	}, nil
}

// NewExtractResponse renders a successful result.
func NewExtractResponse(res extract.Result) ExtractResponse {
	entries := res.Entries
	if entries == nil {
		entries = []docs.Entry{}
	}
	path := res.Job.Query.Path
	if path == "" {
		path = res.Crate
	}
	return ExtractResponse{
		Crate:   res.Crate,
		Version: res.Version,
		Path:    path,
		Kind:    res.Job.Query.Kind,
		Entries: entries,
	}
}

// NewBatchResult renders a result that may have failed.
func NewBatchResult(res extract.Result) BatchResult {
	out := BatchResult{ExtractResponse: NewExtractResponse(res)}
	if res.Err != nil {
		out.Error = res.Err.Error()
		out.Entries = nil
		if out.Crate == "" {
			out.Crate = res.Job.Crate
		}
	}
	return out
}
