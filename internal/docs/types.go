package docs

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RustdocCrate is the top-level structure of rustdoc JSON output.
type RustdocCrate struct {
	Root           int                                          `json:"root"`
	CrateVersion   *string                                      `json:"crate_version"`
	Index          *orderedmap.OrderedMap[string, RustdocItem] `json:"index"`
	Paths          map[string]RustdocSummary                    `json:"paths"`
	ExternalCrates map[string]ExternalCrate                     `json:"external_crates"`
	FormatVersion  int                                          `json:"format_version"`
}

// ExternalCrate identifies a dependency crate by name.
type ExternalCrate struct {
	Name        string `json:"name"`
	HTMLRootURL string `json:"html_root_url"`
}

// RustdocItem is a single item in the rustdoc index.
type RustdocItem struct {
	ID         int             `json:"id"`
	CrateID    int             `json:"crate_id"`
	Name       *string         `json:"name"`
	Docs       *string         `json:"docs"`
	Span       *Span           `json:"span"`
	Visibility json.RawMessage `json:"visibility"`
	Inner      json.RawMessage `json:"inner"`
}

// RustdocSummary provides the canonical path and kind for an item, including
// items that live in other crates.
type RustdocSummary struct {
	CrateID int      `json:"crate_id"`
	Path    []string `json:"path"`
	Kind    string   `json:"kind"`
}

// Span is the source location of an item. It is carried for callers that
// want it and ignored by resolution.
type Span struct {
	Filename string `json:"filename"`
	Begin    [2]int `json:"begin"`
	End      [2]int `json:"end"`
}

type moduleInner struct {
	Items []int `json:"items"`
}

type useInner struct {
	Source string `json:"source"`
	Name   string `json:"name"`
	ID     *int   `json:"id"`
	IsGlob bool   `json:"is_glob"`
}

type enumInner struct {
	Variants []int `json:"variants"`
	Impls    []int `json:"impls"`
}

type structInner struct {
	Impls []int `json:"impls"`
}

type traitInner struct {
	Items []int `json:"items"`
}

type implInner struct {
	Trait json.RawMessage `json:"trait"`
	Items []int           `json:"items"`
}
