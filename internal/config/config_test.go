package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProducesValidConfig(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 384, cfg.Embeddings.Dimensions)
	assert.Equal(t, 24, cfg.Maintenance.IntervalHours)
}

func TestFindProjectRoot_GitDirectory_ReturnsGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "src", "internal")
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))

	root, err := FindProjectRoot(nestedDir)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_ConfigFile_ReturnsConfigLocation(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "src", "internal")
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".codeindex.yaml"), []byte("version: 1"), 0o644))

	root, err := FindProjectRoot(nestedDir)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_NoMarkers_ReturnsStartDir(t *testing.T) {
	tmpDir := t.TempDir()
	root, err := FindProjectRoot(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestLoadMergesProjectFileOverDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	yaml := "embeddings:\n  provider: ollama\n  model: nomic-embed-text\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".codeindex.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	assert.Equal(t, 384, cfg.Embeddings.Dimensions, "unset fields keep the default")
}

func TestLoadWithoutProjectFileReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CODEINDEX_EMBEDDINGS_PROVIDER", "ollama")
	t.Setenv("CODEINDEX_RETENTION_DAYS", "7")

	cfg := Default()
	cfg.applyEnvOverrides()
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, 7, cfg.Store.RetentionDays)
}

func TestValidateRejectsBadDebounce(t *testing.T) {
	cfg := Default()
	cfg.Watcher.DebounceMS = 1
	assert.Error(t, cfg.Validate())
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".codeindex.yaml")
	cfg := Default()
	cfg.Embeddings.Provider = "ollama"
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", loaded.Embeddings.Provider)
}

func TestIsIgnoredDefault(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsIgnoredDefault("node_modules/foo.js"))
	assert.False(t, cfg.IsIgnoredDefault("src/main.go"))
}

func TestUserConfigExistsFalseWhenAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.False(t, UserConfigExists())
}
