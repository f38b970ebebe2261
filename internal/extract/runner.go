package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jcdickinson/ferrisdoc/internal/config"
	"github.com/jcdickinson/ferrisdoc/internal/docs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Job is one extraction: where the index comes from and what to query in it.
// Index takes precedence; otherwise the stored index of Crate@Version is used.
type Job struct {
	Index   string
	Crate   string
	Version string
	// Fetch downloads the index from docs.rs when none is stored.
	Fetch bool
	Query docs.Query
}

// Label names the job in logs and output headers.
func (j Job) Label() string {
	switch {
	case j.Query.Path != "":
		return j.Query.Path
	case j.Crate != "":
		return j.Crate
	default:
		return j.Index
	}
}

// Result is the outcome of one job. Err is set instead of Entries on failure.
type Result struct {
	Job     Job
	Crate   string
	Version string
	Entries []docs.Entry
	Err     error
}

// Runner runs jobs against indexes loaded at most once per Runner.
type Runner struct {
	IndexDir    string
	Concurrency int
	Fetcher     *docs.Fetcher

	loadGroup  singleflight.Group
	fetchGroup singleflight.Group

	graphs   map[string]*docs.Graph
	graphsMu sync.RWMutex
}

func NewRunner(indexDir string, concurrency int, fetcher *docs.Fetcher) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		IndexDir:    indexDir,
		Concurrency: concurrency,
		Fetcher:     fetcher,
		graphs:      make(map[string]*docs.Graph),
	}
}

// Run executes jobs concurrently. Results are returned in job order; a
// failing job does not stop the others.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = r.Extract(gctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Extract runs a single job.
func (r *Runner) Extract(ctx context.Context, job Job) Result {
	res := Result{Job: job}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	graph, err := r.graphFor(ctx, job)
	if err != nil {
		res.Err = err
		slog.Debug("extract failed", "job", job.Label(), "error", err)
		return res
	}
	res.Crate = graph.CrateName
	res.Version = graph.CrateVersion

	q := job.Query
	if q.Path == "" {
		q.Path = graph.CrateName
	}
	entries, err := docs.Extract(graph, q)
	if err != nil {
		res.Err = err
		slog.Debug("extract failed", "job", job.Label(), "error", err)
		return res
	}
	res.Entries = entries
	slog.Debug("extracted docs", "job", job.Label(), "kind", q.Kind, "entries", len(entries))
	return res
}

func (r *Runner) graphFor(ctx context.Context, job Job) (*docs.Graph, error) {
	if job.Index != "" {
		return r.Load(job.Index)
	}
	if job.Crate == "" {
		return nil, errors.New("job has neither an index nor a crate")
	}

	path, err := r.Locate(job.Crate, job.Version)
	if err != nil {
		var loadErr *docs.IndexLoadError
		if !job.Fetch || r.Fetcher == nil || !errors.As(err, &loadErr) {
			return nil, err
		}
		path, err = r.Fetch(ctx, job.Crate, job.Version)
		if err != nil {
			return nil, err
		}
	}
	return r.Load(path)
}

// Locate finds a stored index, also trying the hyphenated package name since
// module paths spell crate names with underscores.
func (r *Runner) Locate(name, version string) (string, error) {
	path, err := docs.LocateIndex(r.IndexDir, name, version)
	if err == nil {
		return path, nil
	}
	if alt := strings.ReplaceAll(name, "_", "-"); alt != name {
		if p, altErr := docs.LocateIndex(r.IndexDir, alt, version); altErr == nil {
			return p, nil
		}
	}
	return "", err
}

// Load parses the index at path, reusing the graph of earlier calls.
func (r *Runner) Load(path string) (*docs.Graph, error) {
	r.graphsMu.RLock()
	g, ok := r.graphs[path]
	r.graphsMu.RUnlock()
	if ok {
		return g, nil
	}

	v, err, _ := r.loadGroup.Do(path, func() (interface{}, error) {
		g, err := docs.Load(path)
		if err != nil {
			return nil, err
		}
		r.graphsMu.Lock()
		r.graphs[path] = g
		r.graphsMu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*docs.Graph), nil
}

// Fetch downloads the index of name@version from docs.rs into IndexDir and
// returns the stored path. "latest" is stored under the version it resolved to.
func (r *Runner) Fetch(ctx context.Context, name, version string) (string, error) {
	if r.Fetcher == nil {
		return "", errors.New("fetching is not configured")
	}
	if version == "" {
		version = "latest"
	}

	key := name + "@" + version
	v, err, _ := r.fetchGroup.Do(key, func() (interface{}, error) {
		slog.Info("fetching rustdoc JSON", "crate", name, "version", version)
		data, err := r.Fetcher.FetchRustdocJSON(ctx, name, version)
		if err != nil {
			return "", fmt.Errorf("fetching docs: %w", err)
		}

		g, err := docs.Parse(key, data)
		if err != nil {
			return "", err
		}
		realVersion := version
		if g.CrateVersion != "" {
			realVersion = g.CrateVersion
		}

		path, err := docs.SaveIndex(r.IndexDir, data, name, realVersion)
		if err != nil {
			return "", err
		}
		r.graphsMu.Lock()
		r.graphs[path] = g
		r.graphsMu.Unlock()
		slog.Info("stored rustdoc JSON", "crate", name, "version", realVersion, "path", path)
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// JobsFromConfig turns the configured packages into jobs, filling unset
// options from the extract defaults.
func JobsFromConfig(cfg *config.Config) ([]Job, error) {
	defaultKind, err := docs.ParseKind(cfg.Extract.Kind)
	if err != nil {
		return nil, fmt.Errorf("extract.kind: %w", err)
	}

	jobs := make([]Job, 0, len(cfg.Packages))
	for i, p := range cfg.Packages {
		kind := defaultKind
		if p.Kind != "" {
			if kind, err = docs.ParseKind(p.Kind); err != nil {
				return nil, fmt.Errorf("packages[%d].kind: %w", i, err)
			}
		}
		q := docs.Query{
			Path:       p.ModulePath,
			Kind:       kind,
			Recursive:  cfg.Extract.Recursive,
			PublicOnly: cfg.Extract.PublicOnly,
		}
		if p.Recursive != nil {
			q.Recursive = *p.Recursive
		}
		if p.PublicOnly != nil {
			q.PublicOnly = *p.PublicOnly
		}
		jobs = append(jobs, Job{
			Index:   p.Index,
			Crate:   p.Name,
			Version: p.Version,
			Query:   q,
		})
	}
	return jobs, nil
}
