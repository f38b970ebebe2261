package docs

import "strings"

// Entry is the extracted comment of one item.
type Entry struct {
	ID   ItemID `json:"-"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Kind Kind   `json:"kind"`
	Doc  string `json:"doc"`
}

// Collect returns the doc comments of ids, in order. Undocumented items and
// ids missing from the graph are left out; empty comments are kept.
func Collect(g *Graph, ids []ItemID) []Entry {
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		it, ok := g.Item(id)
		if !ok || !it.Documented() {
			continue
		}
		entries = append(entries, Entry{
			ID:   id,
			Name: it.Name,
			Path: strings.Join(it.Path, PathSeparator),
			Kind: it.Kind,
			Doc:  *it.Doc,
		})
	}
	return entries
}

// Extract runs a query and collects the comments of its results.
func Extract(g *Graph, q Query) ([]Entry, error) {
	ids, err := ResolveWith(g, q)
	if err != nil {
		return nil, err
	}
	return Collect(g, ids), nil
}
