package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_UsesDocumentedFallbacks(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, time.Minute, cfg.HTTP.DefaultTimeLimit)
	assert.Empty(t, cfg.Ledger.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bellum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
  default_time_limit: 2m
ledger:
  dsn: "postgres://localhost/bellum"
log:
  level: "debug"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Minute, cfg.HTTP.DefaultTimeLimit)
	assert.Equal(t, "postgres://localhost/bellum", cfg.Ledger.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFileValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bellum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":9090\"\n"), 0o644))

	t.Setenv("BELLUM_HTTP_ADDR", ":7070")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
