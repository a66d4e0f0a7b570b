package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Server.EventBuffer)
	assert.Equal(t, filepath.Join(".decintel", "decintel.db"), cfg.Store.Path)
	assert.True(t, cfg.Store.Seed)
	assert.Equal(t, 4, cfg.Pipeline.Segments)
	assert.InDelta(t, 0.7, cfg.Pipeline.HighRiskThreshold, 1e-9)
	assert.Equal(t, 3, cfg.Pipeline.TopExplanations)
	assert.False(t, cfg.Pipeline.PersistSimulations)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
server:
  port: 9090
pipeline:
  segments: 2
  high_risk_threshold: 0.5
`), 0o600))

	cfg, err := NewLoader().WithConfigFile(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Pipeline.Segments)
	assert.InDelta(t, 0.5, cfg.Pipeline.HighRiskThreshold, 1e-9)
	// Untouched keys keep their defaults.
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DECINTEL_SERVER_PORT", "7070")
	t.Setenv("DECINTEL_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := NewLoader().WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad port", func(c *Config) { c.Server.Port = -1 }},
		{"zero segments", func(c *Config) { c.Pipeline.Segments = 0 }},
		{"threshold above one", func(c *Config) { c.Pipeline.HighRiskThreshold = 1.5 }},
		{"negative explanations", func(c *Config) { c.Pipeline.TopExplanations = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewLoader().Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, validate(cfg))
		})
	}
}
