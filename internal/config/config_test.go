package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	cfg := Load(t.TempDir())
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Index.Ignore)
	assert.Empty(t, cfg.Index.CoreComponents)
	assert.True(t, cfg.EffectiveSnapshot())
}

func TestLoadFull(t *testing.T) {
	dir := t.TempDir()
	rc := `index:
  ignore:
    - priv/static
    - "**/generated"
  core_components: MyAppWeb.UI.Components
  snapshot: false
  snapshot_path: /tmp/phx-index-test.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".phxindexrc"), []byte(rc), 0o600))

	cfg := Load(dir)
	assert.Equal(t, []string{"priv/static", "**/generated"}, cfg.Index.Ignore)
	assert.Equal(t, "MyAppWeb.UI.Components", cfg.Index.CoreComponents)
	assert.False(t, cfg.EffectiveSnapshot())
	assert.Equal(t, "/tmp/phx-index-test.db", cfg.Index.SnapshotPath)
}

func TestLoadInvalidYAMLFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".phxindexrc"), []byte("index: [not: a map\n"), 0o600))

	cfg := Load(dir)
	require.NotNil(t, cfg)
	assert.True(t, cfg.EffectiveSnapshot())
	assert.Empty(t, cfg.Index.Ignore)
}

func TestEffectiveSnapshotExplicitTrue(t *testing.T) {
	on := true
	cfg := &Config{Index: IndexConfig{Snapshot: &on}}
	assert.True(t, cfg.EffectiveSnapshot())
}
