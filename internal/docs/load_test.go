package docs

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePath = "testdata/datafusion_expr.json"

func loadFixture(t *testing.T) *Graph {
	t.Helper()
	g, err := Load(fixturePath)
	require.NoError(t, err)
	return g
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestLoad_Fixture(t *testing.T) {
	t.Parallel()

	g := loadFixture(t)
	assert.Equal(t, ItemID("0"), g.Root)
	assert.Equal(t, "datafusion_expr", g.CrateName)
	assert.Equal(t, "43.0.0", g.CrateVersion)
	assert.Equal(t, 45, g.FormatVersion)
	assert.Equal(t, 22, g.Len())

	lit, ok := g.Item("2")
	require.True(t, ok)
	assert.Equal(t, KindFunction, lit.Kind)
	assert.Equal(t, VisibilityPublic, lit.Visibility)
	require.NotNil(t, lit.Doc)
	assert.Equal(t, "Creates a literal expression.", *lit.Doc)
	assert.Equal(t, []string{"datafusion_expr", "expr_fn", "lit"}, lit.Path)
	require.NotNil(t, lit.Span)
	assert.Equal(t, "src/expr_fn.rs", lit.Span.Filename)
	assert.Equal(t, [2]int{10, 0}, lit.Span.Begin)

	col, _ := g.Item("3")
	assert.Nil(t, col.Doc)

	when, _ := g.Item("4")
	require.NotNil(t, when.Doc)
	assert.Equal(t, "", *when.Doc)

	helper, _ := g.Item("20")
	assert.Equal(t, VisibilityCrate, helper.Visibility)
}

func TestLoad_PreservesIndexOrder(t *testing.T) {
	t.Parallel()

	g := loadFixture(t)
	want := []ItemID{"0", "1", "20", "4", "2", "3", "21", "5"}
	for i, id := range want {
		pos, ok := g.Position(id)
		require.True(t, ok, id)
		assert.Equal(t, i, pos, id)
	}
}

func TestLoad_Edges(t *testing.T) {
	t.Parallel()

	g := loadFixture(t)

	root, _ := g.Item("0")
	assert.Equal(t, KindModule, root.Kind)
	assert.Equal(t, []ItemID{"1", "5", "6", "7", "8", "9", "12", "14"}, root.Children)

	renamed, _ := g.Item("6")
	assert.Equal(t, KindUse, renamed.Kind)
	assert.Equal(t, "literal", renamed.Name)
	assert.Equal(t, ItemID("2"), renamed.Target)
	assert.False(t, renamed.Glob)

	globbed, _ := g.Item("7")
	assert.True(t, globbed.Glob)
	assert.Equal(t, ItemID("1"), globbed.Target)

	// Only the inherent impl contributes children.
	expr, _ := g.Item("12")
	assert.Equal(t, KindStruct, expr.Kind)
	assert.Equal(t, []ItemID{"15"}, expr.Children)

	op, _ := g.Item("14")
	assert.Equal(t, []ItemID{"18", "19"}, op.Children)
	plus, _ := g.Item("18")
	assert.Equal(t, KindOther, plus.Kind)
	assert.Equal(t, VisibilityPublic, plus.Visibility)

	ext, ok := g.Summary("100")
	require.True(t, ok)
	assert.Equal(t, 1, ext.CrateID)
	assert.Equal(t, KindTrait, ext.Kind)
	assert.Equal(t, "serde", g.ExternalCrateName(1))
}

func TestLoad_Zstd(t *testing.T) {
	t.Parallel()

	plain, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "datafusion_expr.json.zst")
	require.NoError(t, os.WriteFile(path, compress(t, plain), 0644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "datafusion_expr", g.CrateName)
	assert.Equal(t, 22, g.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	var loadErr *IndexLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	fixture, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	t.Run("truncated JSON", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("truncated", fixture[:len(fixture)/2])
		var loadErr *IndexLoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "truncated", loadErr.Source)
	})

	t.Run("corrupt zstd", func(t *testing.T) {
		t.Parallel()

		data := append(append([]byte{}, zstdMagic...), []byte("not really zstd")...)
		_, err := Parse("corrupt", data)
		var loadErr *IndexLoadError
		require.ErrorAs(t, err, &loadErr)
	})

	t.Run("old format version", func(t *testing.T) {
		t.Parallel()

		old := bytes.Replace(fixture, []byte(`"format_version": 45`), []byte(`"format_version": 12`), 1)
		_, err := Parse("old", old)
		var schemaErr *SchemaMismatchError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "format_version 12", schemaErr.Found)
		assert.Contains(t, schemaErr.Expected, "35")
		assert.Contains(t, err.Error(), "regenerate")
	})

	t.Run("future format version", func(t *testing.T) {
		t.Parallel()

		future := bytes.Replace(fixture, []byte(`"format_version": 45`), []byte(`"format_version": 999`), 1)
		_, err := Parse("future", future)
		var schemaErr *SchemaMismatchError
		require.ErrorAs(t, err, &schemaErr)
	})

	t.Run("no format version", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("bare", []byte(`{"root": 0, "index": {}}`))
		var schemaErr *SchemaMismatchError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "no format_version", schemaErr.Found)
	})

	t.Run("wrong field type", func(t *testing.T) {
		t.Parallel()

		bad := bytes.Replace(fixture, []byte(`"root": 0`), []byte(`"root": "zero"`), 1)
		_, err := Parse("bad-root", bad)
		var schemaErr *SchemaMismatchError
		require.ErrorAs(t, err, &schemaErr)
	})

	t.Run("index is not an object", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("list-index", []byte(`{"format_version": 40, "root": 0, "index": []}`))
		var schemaErr *SchemaMismatchError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "malformed index", schemaErr.Found)
		assert.Error(t, schemaErr.Err)

		var loadErr *IndexLoadError
		assert.False(t, errors.As(err, &loadErr))
	})

	t.Run("root missing from index", func(t *testing.T) {
		t.Parallel()

		bad := bytes.Replace(fixture, []byte(`"root": 0`), []byte(`"root": 4242`), 1)
		_, err := Parse("bad-root", bad)
		var schemaErr *SchemaMismatchError
		require.ErrorAs(t, err, &schemaErr)
	})

	t.Run("root not a module", func(t *testing.T) {
		t.Parallel()

		bad := bytes.Replace(fixture, []byte(`"root": 0`), []byte(`"root": 2`), 1)
		_, err := Parse("fn-root", bad)
		var schemaErr *SchemaMismatchError
		require.ErrorAs(t, err, &schemaErr)
		assert.True(t, strings.Contains(schemaErr.Found, "function"))
	})
}

// enumWithImpl is a public enum with one variant and an inherent impl
// holding a private associated const.
const enumWithImpl = `{
  "format_version": 45, "root": 0, "crate_version": "0.1.0",
  "index": {
    "0": {"id": 0, "crate_id": 0, "name": "c", "visibility": "public", "docs": null,
          "inner": {"module": {"is_crate": true, "items": [1]}}},
    "1": {"id": 1, "crate_id": 0, "name": "E", "visibility": "public", "docs": "An enum.",
          "inner": {"enum": {"variants": [2], "impls": [3]}}},
    "2": {"id": 2, "crate_id": 0, "name": "A", "visibility": "default", "docs": "The only variant.",
          "inner": {"variant": {"kind": "plain", "discriminant": null}}},
    "3": {"id": 3, "crate_id": 0, "name": null, "visibility": "default", "docs": null,
          "inner": {"impl": {"trait": null, "items": [4]}}},
    "4": {"id": 4, "crate_id": 0, "name": "SECRET", "visibility": "default", "docs": "Not exported.",
          "inner": {"assoc_const": {"type": {"primitive": "u32"}, "value": "7"}}}
  },
  "paths": {}, "external_crates": {}
}`

func TestLoad_EnumVisibility(t *testing.T) {
	t.Parallel()

	g, err := Parse("enum", []byte(enumWithImpl))
	require.NoError(t, err)

	variant, _ := g.Item("2")
	assert.True(t, variant.Variant)
	assert.Equal(t, VisibilityPublic, variant.Visibility)

	secret, _ := g.Item("4")
	assert.False(t, secret.Variant)
	assert.Equal(t, KindOther, secret.Kind)
	assert.Equal(t, VisibilityDefault, secret.Visibility)

	ids, err := ResolveWith(g, Query{Path: "c::E", Kind: KindAny, PublicOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []ItemID{"1", "2"}, ids)

	ids, err = ResolveWith(g, Query{Path: "c::E", Kind: KindAny})
	require.NoError(t, err)
	assert.Equal(t, []ItemID{"1", "2", "4"}, ids)
}
