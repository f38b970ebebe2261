package docs

import (
	"errors"
	"fmt"
)

// ErrEmptyPath is returned when a query has no path segments.
var ErrEmptyPath = errors.New("empty module path")

// IndexLoadError indicates the index could not be read or is not valid JSON.
type IndexLoadError struct {
	Source string
	Err    error
}

func (e *IndexLoadError) Error() string {
	return fmt.Sprintf("loading index %s: %v", e.Source, e.Err)
}

func (e *IndexLoadError) Unwrap() error { return e.Err }

// SchemaMismatchError indicates the index parsed but was produced by an
// incompatible rustdoc, or does not have the expected shape.
type SchemaMismatchError struct {
	Source   string
	Found    string
	Expected string
	Err      error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("index %s has unsupported schema: found %s, expected %s (regenerate it with a matching nightly toolchain)",
		e.Source, e.Found, e.Expected)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// PathNotFoundError reports the first path segment that matched nothing,
// together with the prefix that did resolve.
type PathNotFoundError struct {
	Path    string
	Segment string
	Prefix  string
}

func (e *PathNotFoundError) Error() string {
	if e.Prefix == "" {
		return fmt.Sprintf("path %s not found: no crate named %q", e.Path, e.Segment)
	}
	return fmt.Sprintf("path %s not found: %q has no member %q", e.Path, e.Prefix, e.Segment)
}
