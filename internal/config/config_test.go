package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "rawfile", cfg.Resources.RawfileDir)
	assert.Equal(t, "medialib.db", cfg.Library.DBPath)
	assert.Equal(t, 4, cfg.Library.ScanWorkers)
	assert.Equal(t, 5*time.Second, cfg.Library.BusyTimeout)
	assert.True(t, cfg.Permissions.AutoGrant)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SURFACETEST_SCAN_WORKERS=0\nSURFACETEST_AUTO_GRANT=false\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("SURFACETEST_SCAN_WORKERS")
		os.Unsetenv("SURFACETEST_AUTO_GRANT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Library.ScanWorkers)
	assert.False(t, cfg.Permissions.AutoGrant)
}

func TestLoadMissingDotenvIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestUsesBundle(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "entry.hap")
	require.NoError(t, os.WriteFile(bundle, []byte("PK"), 0o644))

	assert.True(t, Resources{Bundle: bundle}.UsesBundle())
	assert.False(t, Resources{Bundle: dir}.UsesBundle())
	assert.False(t, Resources{}.UsesBundle())
}
