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

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, 5*time.Minute, cfg.Correlation.SignatureTTL)
	assert.Equal(t, 5*time.Minute, cfg.Correlation.WindowSize)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.EntityTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9091
correlation:
  signature_ttl: 10m
dispatch:
  entity_timeout: 2s
  entity_override:
    bomberos: http://bomberos.local/dispatch
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9091, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Correlation.SignatureTTL)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.EntityTimeout)
	assert.Equal(t, "http://bomberos.local/dispatch", cfg.Dispatch.EntityOverride["bomberos"])
	// Untouched keys keep their defaults.
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	assert.Error(t, err)
}
