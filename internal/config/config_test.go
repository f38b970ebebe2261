package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	assert.Equal(t, filepath.Join("/custom/cache", "ferrisdoc"), cacheBase())
	assert.Equal(t, filepath.Join("/custom/cache", "ferrisdoc", "json"), IndexDir())
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	assert.Equal(t, filepath.Join(home, ".cache", "ferrisdoc"), cacheBase())
}

func TestCacheBase_TmpFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")
	// Should use os.TempDir() when HOME is unset
	assert.True(t, strings.Contains(cacheBase(), "ferrisdoc"))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "function", cfg.Extract.Kind)
	assert.True(t, cfg.Extract.PublicOnly)
	assert.False(t, cfg.Extract.Recursive)
	assert.Equal(t, 60, cfg.Fetch.TimeoutSeconds)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, "Cargo.toml", cfg.Build.ManifestPath)
	assert.Equal(t, "nightly", cfg.Build.Toolchain)
	assert.True(t, cfg.Build.AllFeatures)
	assert.Empty(t, cfg.Packages)
}

func TestLoadFile_Packages(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
[extract]
kind = "any"

[batch]
concurrency = 2

[[packages]]
name = "datafusion_expr"
module_path = "datafusion_expr::expr_fn"
kind = "function"
recursive = true

[[packages]]
index = "target/doc/mycrate.json"
module_path = "mycrate"
`))
	require.NoError(t, err)

	assert.Equal(t, "any", cfg.Extract.Kind)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
	require.Len(t, cfg.Packages, 2)

	first := cfg.Packages[0]
	assert.Equal(t, "datafusion_expr", first.Name)
	assert.Equal(t, "datafusion_expr::expr_fn", first.ModulePath)
	assert.Equal(t, "function", first.Kind)
	require.NotNil(t, first.Recursive)
	assert.True(t, *first.Recursive)
	assert.Nil(t, first.PublicOnly)

	assert.Equal(t, "target/doc/mycrate.json", cfg.Packages[1].Index)
	assert.Nil(t, cfg.Packages[1].Recursive)
}

func TestLoadFile_PackageShorthand(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `packages = ["serde::de", "tokio@1.40.0::sync"]`))
	require.NoError(t, err)
	require.Len(t, cfg.Packages, 2)

	assert.Equal(t, PackageConfig{Name: "serde", ModulePath: "serde::de"}, cfg.Packages[0])
	assert.Equal(t, PackageConfig{Name: "tokio", Version: "1.40.0", ModulePath: "tokio::sync"}, cfg.Packages[1])
}

func TestLoadFile_PackageWithoutSource(t *testing.T) {
	_, err := LoadFile(writeConfig(t, `
[[packages]]
module_path = "serde::de"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "packages[0]")
}

func TestLoadFile_Env(t *testing.T) {
	t.Setenv("FERRISDOC_BATCH_CONCURRENCY", "9")
	t.Setenv("FERRISDOC_BUILD_TOOLCHAIN", "nightly-2025-01-01")

	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Batch.Concurrency)
	assert.Equal(t, "nightly-2025-01-01", cfg.Build.Toolchain)
}

func TestLoadFile_NonPositiveConcurrency(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "[batch]\nconcurrency = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Batch.Concurrency)
}

func TestLoadFile_Malformed(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "[extract\nkind = "))
	require.Error(t, err)
}
