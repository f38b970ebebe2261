package docs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// PathSeparator separates the segments of a module path.
const PathSeparator = "::"

// MaxReexportDepth bounds how many `use` hops are followed for one alias.
const MaxReexportDepth = 32

// Query selects items under a module path.
type Query struct {
	Path string
	Kind Kind
	// Recursive also collects the members of nested containers.
	Recursive bool
	// PublicOnly drops results that are not `pub`.
	PublicOnly bool
}

// Resolve returns the ids of the items at path, plus the members of any
// module, struct, enum or trait found there, that match kind. The first
// segment names the crate. Results are deduplicated and ordered by position
// in the index.
func Resolve(g *Graph, path string, kind Kind) ([]ItemID, error) {
	return ResolveWith(g, Query{Path: path, Kind: kind})
}

// ResolveWith is Resolve with the full set of query options.
func ResolveWith(g *Graph, q Query) ([]ItemID, error) {
	segments, err := SplitPath(q.Path)
	if err != nil {
		return nil, err
	}

	r := &resolver{g: g}
	var frontier []ItemID
	for i, seg := range segments {
		var candidates []member
		if i == 0 {
			candidates = r.top()
		} else {
			for _, id := range frontier {
				candidates = append(candidates, r.members(id)...)
			}
		}

		next := newIDSet()
		for _, m := range candidates {
			if m.name == seg {
				next.add(m.id)
			}
		}
		if next.len() == 0 {
			return nil, &PathNotFoundError{
				Path:    q.Path,
				Segment: seg,
				Prefix:  strings.Join(segments[:i], PathSeparator),
			}
		}
		frontier = next.ids
	}

	found := newIDSet()
	for _, id := range frontier {
		found.add(id)
	}
	visited := map[ItemID]bool{}
	for _, id := range frontier {
		r.expand(id, q.Recursive, found, visited)
	}

	out := make([]ItemID, 0, found.len())
	for _, id := range found.ids {
		it, ok := g.Item(id)
		if !ok || !q.Kind.Matches(it.Kind) {
			continue
		}
		if q.PublicOnly && it.Visibility != VisibilityPublic {
			continue
		}
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b ItemID) int {
		pa, _ := g.Position(a)
		pb, _ := g.Position(b)
		return pa - pb
	})
	return out, nil
}

// SplitPath splits a `::`-separated path, rejecting empty segments. Only the
// path as a whole is trimmed; segments are kept verbatim so that they match
// item names in full.
func SplitPath(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyPath
	}
	segments := strings.Split(path, PathSeparator)
	for i, s := range segments {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: empty segment %d in %q", ErrEmptyPath, i, path)
		}
	}
	return segments, nil
}

// member is a child as seen from its parent: the visible name and the item
// it denotes after alias resolution.
type member struct {
	name string
	id   ItemID
}

type resolver struct {
	g *Graph
}

// top is the virtual level above the crate root.
func (r *resolver) top() []member {
	root, ok := r.g.Item(r.g.Root)
	if !ok {
		return nil
	}
	return []member{{name: root.Name, id: root.ID}}
}

func (r *resolver) members(id ItemID) []member {
	return r.membersGuarded(id, map[ItemID]bool{})
}

// membersGuarded lists the resolved children of id. Glob imports splice in
// the members of their target; globs tracks the containers already spliced.
func (r *resolver) membersGuarded(id ItemID, globs map[ItemID]bool) []member {
	parent, ok := r.g.Item(id)
	if !ok {
		return nil
	}
	globs[id] = true

	var out []member
	for _, childID := range parent.Children {
		child, ok := r.g.Item(childID)
		if !ok {
			continue
		}
		if child.Kind != KindUse {
			out = append(out, member{name: child.Name, id: child.ID})
			continue
		}
		target, ok := r.follow(child)
		if !ok {
			continue
		}
		if child.Glob {
			if globs[target] {
				continue
			}
			out = append(out, r.membersGuarded(target, globs)...)
			continue
		}
		out = append(out, member{name: child.Name, id: target})
	}
	return out
}

// follow resolves a `use` item to the item it finally names. Chains that
// leave the index, loop, or exceed MaxReexportDepth are unresolvable.
func (r *resolver) follow(use *Item) (ItemID, bool) {
	seen := map[ItemID]bool{use.ID: true}
	cur := use
	for depth := 0; depth < MaxReexportDepth; depth++ {
		if cur.Target == "" {
			slog.Debug("re-export has no target", "use", cur.Name, "id", cur.ID)
			return "", false
		}
		target, ok := r.g.Item(cur.Target)
		if !ok {
			r.logExternal(cur)
			return "", false
		}
		if target.Kind != KindUse {
			return target.ID, true
		}
		if target.Glob {
			return "", false
		}
		if seen[target.ID] {
			slog.Debug("re-export cycle", "use", use.Name, "id", use.ID)
			return "", false
		}
		seen[target.ID] = true
		cur = target
	}
	slog.Debug("re-export chain too long", "use", use.Name, "id", use.ID, "max", MaxReexportDepth)
	return "", false
}

func (r *resolver) logExternal(use *Item) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{"use", use.Name, "target", r.g.DisplayPath(use.Target)}
	if s, ok := r.g.Summary(use.Target); ok && s.CrateID != 0 {
		attrs = append(attrs, "crate", r.g.ExternalCrateName(s.CrateID))
	}
	slog.Debug("skipping re-export of item outside the index", attrs...)
}

// expand adds the members of id to found, descending into every member
// that has members of its own when recursive.
func (r *resolver) expand(id ItemID, recursive bool, found *idSet, visited map[ItemID]bool) {
	if visited[id] {
		return
	}
	visited[id] = true
	for _, m := range r.members(id) {
		found.add(m.id)
		if recursive {
			r.expand(m.id, recursive, found, visited)
		}
	}
}

// idSet is an insertion-ordered set of ids.
type idSet struct {
	ids  []ItemID
	seen map[ItemID]bool
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[ItemID]bool)}
}

func (s *idSet) add(id ItemID) {
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.ids = append(s.ids, id)
}

func (s *idSet) len() int { return len(s.ids) }
