package docs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/klauspost/compress/zstd"
)

// Supported rustdoc JSON format versions: integer item ids and `use` items.
const (
	MinFormatVersion = 35
	MaxFormatVersion = 57
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Load reads a rustdoc JSON index from disk. Files compressed with zstd (as
// served by docs.rs) are decompressed transparently.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IndexLoadError{Source: path, Err: err}
	}
	defer f.Close()
	return LoadReader(path, f)
}

// LoadReader reads an index from r; name is used in errors and logs.
func LoadReader(name string, r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &IndexLoadError{Source: name, Err: err}
	}
	return Parse(name, data)
}

// Parse builds a Graph from rustdoc JSON bytes, plain or zstd-compressed.
func Parse(name string, data []byte) (*Graph, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := decompress(data)
		if err != nil {
			return nil, &IndexLoadError{Source: name, Err: err}
		}
		data = plain
	}

	var header struct {
		FormatVersion *int `json:"format_version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, classifyDecodeError(name, err)
	}
	if header.FormatVersion == nil {
		return nil, &SchemaMismatchError{
			Source:   name,
			Found:    "no format_version",
			Expected: supportedVersions(),
		}
	}
	if v := *header.FormatVersion; v < MinFormatVersion || v > MaxFormatVersion {
		return nil, &SchemaMismatchError{
			Source:   name,
			Found:    "format_version " + strconv.Itoa(v),
			Expected: supportedVersions(),
		}
	}

	// The header decoded, so the bytes are valid JSON; any failure here is
	// a shape the crate decoder does not accept.
	var crate RustdocCrate
	if err := json.Unmarshal(data, &crate); err != nil {
		return nil, &SchemaMismatchError{Source: name, Found: "malformed index", Expected: "rustdoc crate", Err: err}
	}

	g, err := buildGraph(name, &crate)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded rustdoc index",
		"source", name,
		"crate", g.CrateName,
		"version", g.CrateVersion,
		"format_version", g.FormatVersion,
		"items", g.Len())
	return g, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing rustdoc JSON: %w", err)
	}
	return out, nil
}

func supportedVersions() string {
	return fmt.Sprintf("format_version %d..%d", MinFormatVersion, MaxFormatVersion)
}

// classifyDecodeError separates byte-level damage from well-formed JSON of
// the wrong shape.
func classifyDecodeError(name string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		found := typeErr.Value
		if typeErr.Field != "" {
			found = fmt.Sprintf("%s at %s", typeErr.Value, typeErr.Field)
		}
		return &SchemaMismatchError{
			Source:   name,
			Found:    found,
			Expected: typeErr.Type.String(),
			Err:      err,
		}
	}
	return &IndexLoadError{Source: name, Err: fmt.Errorf("unmarshaling rustdoc JSON: %w", err)}
}

func buildGraph(name string, crate *RustdocCrate) (*Graph, error) {
	if crate.Index == nil {
		return nil, &SchemaMismatchError{Source: name, Found: "no index object", Expected: "rustdoc crate with index"}
	}

	items := make([]Item, 0, crate.Index.Len())
	for pair := crate.Index.Oldest(); pair != nil; pair = pair.Next() {
		it, err := convertItem(ItemID(pair.Key), &pair.Value, crate)
		if err != nil {
			return nil, &SchemaMismatchError{
				Source:   name,
				Found:    fmt.Sprintf("malformed item %s", pair.Key),
				Expected: "rustdoc item",
				Err:      err,
			}
		}
		items = append(items, it)
	}

	g, err := NewGraph(itemID(crate.Root), items)
	if err != nil {
		return nil, &SchemaMismatchError{Source: name, Found: err.Error(), Expected: "root module in index", Err: err}
	}
	if root, _ := g.Item(g.Root); root.Kind != KindModule {
		return nil, &SchemaMismatchError{Source: name, Found: "root of kind " + root.Kind.String(), Expected: "root module"}
	}

	g.FormatVersion = crate.FormatVersion
	if crate.CrateVersion != nil {
		g.CrateVersion = *crate.CrateVersion
	}
	for id, s := range crate.Paths {
		g.paths[ItemID(id)] = Summary{CrateID: s.CrateID, Path: s.Path, Kind: kindFromInner(s.Kind)}
	}
	for id, ext := range crate.ExternalCrates {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		g.external[n] = ext
	}

	inheritVisibility(g)
	return g, nil
}

func convertItem(id ItemID, raw *RustdocItem, crate *RustdocCrate) (Item, error) {
	it := Item{
		ID:         id,
		Doc:        raw.Docs,
		Visibility: parseVisibility(raw.Visibility),
		Span:       raw.Span,
		CrateID:    raw.CrateID,
	}
	if raw.Name != nil {
		it.Name = *raw.Name
	}
	if s, ok := crate.Paths[string(id)]; ok {
		it.Path = s.Path
	}

	tag, data, err := splitInner(raw.Inner)
	if err != nil {
		return it, err
	}
	it.Kind = kindFromInner(tag)
	it.Variant = tag == "variant"

	switch tag {
	case "module":
		var m moduleInner
		if err := json.Unmarshal(data, &m); err != nil {
			return it, fmt.Errorf("decoding module: %w", err)
		}
		it.Children = toIDs(m.Items)
	case "use":
		var u useInner
		if err := json.Unmarshal(data, &u); err != nil {
			return it, fmt.Errorf("decoding use: %w", err)
		}
		// The alias name is the one visible from the enclosing module.
		it.Name = u.Name
		it.Glob = u.IsGlob
		if u.ID != nil {
			it.Target = itemID(*u.ID)
		}
	case "enum":
		var e enumInner
		if err := json.Unmarshal(data, &e); err != nil {
			return it, fmt.Errorf("decoding enum: %w", err)
		}
		it.Children = append(toIDs(e.Variants), inherentItems(e.Impls, crate)...)
	case "struct", "union":
		var s structInner
		if err := json.Unmarshal(data, &s); err != nil {
			return it, fmt.Errorf("decoding %s: %w", tag, err)
		}
		it.Children = inherentItems(s.Impls, crate)
	case "trait":
		var t traitInner
		if err := json.Unmarshal(data, &t); err != nil {
			return it, fmt.Errorf("decoding trait: %w", err)
		}
		it.Children = toIDs(t.Items)
	}
	return it, nil
}

// splitInner returns the variant tag of an item's "inner" field and its
// payload. Unit variants are serialized as bare strings.
func splitInner(inner json.RawMessage) (string, json.RawMessage, error) {
	if len(inner) == 0 {
		return "", nil, nil
	}
	var unit string
	if err := json.Unmarshal(inner, &unit); err == nil {
		return unit, nil, nil
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return "", nil, fmt.Errorf("decoding inner: %w", err)
	}
	for k, v := range outer {
		return k, v, nil
	}
	return "", nil, nil
}

// inherentItems collects the associated items of the non-trait impls among
// implIDs. Trait impls are skipped.
func inherentItems(implIDs []int, crate *RustdocCrate) []ItemID {
	var out []ItemID
	for _, implID := range implIDs {
		implItem, ok := crate.Index.Get(strconv.Itoa(implID))
		if !ok {
			continue
		}
		tag, data, err := splitInner(implItem.Inner)
		if err != nil || tag != "impl" {
			continue
		}
		var impl implInner
		if err := json.Unmarshal(data, &impl); err != nil {
			continue
		}
		if len(impl.Trait) > 0 && !bytes.Equal(impl.Trait, []byte("null")) {
			continue
		}
		out = append(out, toIDs(impl.Items)...)
	}
	return out
}

// inheritVisibility gives enum variants and trait items, which rustdoc marks
// "default", the visibility of their parent. Associated items from an enum's
// inherent impls keep their own visibility.
func inheritVisibility(g *Graph) {
	for i := range g.items {
		parent := &g.items[i]
		if parent.Kind != KindEnum && parent.Kind != KindTrait {
			continue
		}
		for _, childID := range parent.Children {
			child, ok := g.Item(childID)
			if !ok || child.Visibility != VisibilityDefault {
				continue
			}
			if parent.Kind == KindEnum && !child.Variant {
				continue
			}
			child.Visibility = parent.Visibility
		}
	}
}

func toIDs(ns []int) []ItemID {
	if len(ns) == 0 {
		return nil
	}
	ids := make([]ItemID, len(ns))
	for i, n := range ns {
		ids[i] = itemID(n)
	}
	return ids
}
