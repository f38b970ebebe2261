package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	t.Parallel()

	g := mustGraph(t, "0",
		module("0", "krate", "1", "2", "3"),
		function("1", "documented", strPtr("Line one.\n\n```\nlet x = 1;\n```")),
		function("2", "undocumented", nil),
		function("3", "empty", strPtr("")),
	)

	t.Run("skips undocumented and keeps empty docs", func(t *testing.T) {
		t.Parallel()

		entries := Collect(g, []ItemID{"1", "2", "3"})
		require.Len(t, entries, 2)
		assert.Equal(t, "documented", entries[0].Name)
		assert.Equal(t, "Line one.\n\n```\nlet x = 1;\n```", entries[0].Doc)
		assert.Equal(t, "empty", entries[1].Name)
		assert.Equal(t, "", entries[1].Doc)
	})

	t.Run("mirrors input order", func(t *testing.T) {
		t.Parallel()

		entries := Collect(g, []ItemID{"3", "1"})
		require.Len(t, entries, 2)
		assert.Equal(t, "empty", entries[0].Name)
		assert.Equal(t, "documented", entries[1].Name)
	})

	t.Run("ignores unknown ids", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, Collect(g, []ItemID{"404"}))
	})
}

func TestExtract_Fixture(t *testing.T) {
	t.Parallel()

	g := loadFixture(t)

	entries, err := Extract(g, Query{Path: "datafusion_expr::expr_fn", Kind: KindFunction, PublicOnly: true})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{ID: "4", Name: "when", Path: "datafusion_expr::expr_fn::when", Kind: KindFunction, Doc: ""}, entries[0])
	assert.Equal(t, Entry{ID: "2", Name: "lit", Path: "datafusion_expr::expr_fn::lit", Kind: KindFunction, Doc: "Creates a literal expression."}, entries[1])

	_, err = Extract(g, Query{Path: "datafusion_expr::nope", Kind: KindFunction})
	var notFound *PathNotFoundError
	require.ErrorAs(t, err, &notFound)
}
