package docs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ItemID identifies an item within one index. It is the key of the item in
// the rustdoc "index" object.
type ItemID string

func itemID(n int) ItemID { return ItemID(strconv.Itoa(n)) }

// Item is one documented entity of the graph.
type Item struct {
	ID         ItemID
	Name       string
	Kind       Kind
	Doc        *string // nil: undocumented; "": documented but empty
	Visibility Visibility
	Children   []ItemID
	Target     ItemID // KindUse: the aliased item, "" when rustdoc recorded none
	Glob       bool   // KindUse: `pub use path::*`
	Variant    bool   // enum variant
	Span       *Span
	CrateID    int
	Path       []string // canonical defining path, when known
}

// Documented reports whether the item carries a doc comment, possibly empty.
func (it *Item) Documented() bool { return it.Doc != nil }

// Summary is the canonical path of an item, which may live outside the index.
type Summary struct {
	CrateID int
	Path    []string
	Kind    Kind
}

// Graph is an immutable arena of items keyed by ItemID. Items keep the order
// in which they appeared in the index file.
type Graph struct {
	Root          ItemID
	CrateName     string
	CrateVersion  string
	FormatVersion int

	items    []Item
	pos      map[ItemID]int
	paths    map[ItemID]Summary
	external map[int]ExternalCrate
}

// NewGraph builds a graph from items in index order. The root must be one of
// the items and ids must be unique.
func NewGraph(root ItemID, items []Item) (*Graph, error) {
	g := &Graph{
		Root:     root,
		items:    items,
		pos:      make(map[ItemID]int, len(items)),
		paths:    make(map[ItemID]Summary),
		external: make(map[int]ExternalCrate),
	}
	for i, it := range items {
		if _, dup := g.pos[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %s", it.ID)
		}
		g.pos[it.ID] = i
	}
	rootItem, ok := g.Item(root)
	if !ok {
		return nil, fmt.Errorf("root item %s not in index", root)
	}
	g.CrateName = rootItem.Name
	return g, nil
}

// Item returns the item with the given id. External or stripped items are
// not in the graph.
func (g *Graph) Item(id ItemID) (*Item, bool) {
	i, ok := g.pos[id]
	if !ok {
		return nil, false
	}
	return &g.items[i], true
}

// Position is the index-file position of id, used to order results.
func (g *Graph) Position(id ItemID) (int, bool) {
	i, ok := g.pos[id]
	return i, ok
}

// Len is the number of items in the graph.
func (g *Graph) Len() int { return len(g.items) }

// Summary returns the canonical path entry for id, if rustdoc recorded one.
func (g *Graph) Summary(id ItemID) (Summary, bool) {
	s, ok := g.paths[id]
	return s, ok
}

// DisplayPath renders the canonical path of id for messages, falling back to
// the bare id.
func (g *Graph) DisplayPath(id ItemID) string {
	if s, ok := g.paths[id]; ok && len(s.Path) > 0 {
		return strings.Join(s.Path, "::")
	}
	if it, ok := g.Item(id); ok && it.Name != "" {
		return it.Name
	}
	return "#" + string(id)
}

// ExternalCrateName looks up the Cargo package name for a dependency by crate_id.
// Prefers the name extracted from html_root_url (e.g. "https://docs.rs/tracing-core/0.1.36/...")
// since the Name field uses the Rust lib name (underscores) which may differ from the
// Cargo name (hyphens). Falls back to the lib name if no docs.rs URL is present.
func (g *Graph) ExternalCrateName(crateID int) string {
	ext, ok := g.external[crateID]
	if !ok {
		return ""
	}
	if name := extractDocsRsCrateName(ext.HTMLRootURL); name != "" {
		return name
	}
	return ext.Name
}

// docsRsCrateNameRe extracts the crate name from a docs.rs html_root_url.
// Example: "https://docs.rs/tracing-core/0.1.36/x86_64-unknown-linux-gnu/" → "tracing-core"
var docsRsCrateNameRe = regexp.MustCompile(`^https?://docs\.rs/([^/]+)/`)

func extractDocsRsCrateName(rootURL string) string {
	m := docsRsCrateNameRe.FindStringSubmatch(rootURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
