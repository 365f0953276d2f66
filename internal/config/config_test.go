package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, ".buildinspect.kdl"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.Detectors.EngineVersion)
	assert.True(t, cfg.Detectors.ContentPipeline)
	assert.NotEmpty(t, cfg.DownloadRoot)
}

func TestLoadKDLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".buildinspect.kdl")
	content := `
download_root "/tmp/myroot"
search_roots "/opt/builds" "/mnt/ci"
detectors {
    content_pipeline false
    legacy_ui false
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/tmp/myroot", cfg.DownloadRoot)
	assert.Equal(t, []string{"/opt/builds", "/mnt/ci"}, cfg.SearchRoots)
	assert.False(t, cfg.Detectors.ContentPipeline)
	assert.False(t, cfg.Detectors.LegacyUI)
	assert.True(t, cfg.Detectors.EngineVersion)
}
