package config_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cribconcierge/concierge-go/internal/config"
)

func validConfig() config.Config {
	cfg := config.Load()
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, ":5090", cfg.HTTPAddr)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, "\n", cfg.ChunkSeparator)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.True(t, cfg.AutoRetry)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONCIERGE_HTTP_ADDR", ":9999")
	t.Setenv("CONCIERGE_CHUNK_SIZE", "500")
	t.Setenv("CONCIERGE_TOP_K", "3")
	t.Setenv("CONCIERGE_AUTO_RETRY", "false")

	cfg := config.Load()
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 3, cfg.TopK)
	assert.False(t, cfg.AutoRetry)
}

func TestLoadIgnoresBadNumericEnv(t *testing.T) {
	t.Setenv("CONCIERGE_CHUNK_SIZE", "not-a-number")

	cfg := config.Load()
	assert.Equal(t, 1000, cfg.ChunkSize)
}

func TestSetupLoggerWithWritersFansOut(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := config.SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("listing stored", "property", "prop-1")
	logger.Debug("below threshold")

	assert.Contains(t, stderr.String(), "listing stored")
	assert.Contains(t, stderr.String(), "property=prop-1")
	assert.NotContains(t, stderr.String(), "below threshold")

	var record map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &record))
	assert.Equal(t, "listing stored", record["msg"])
	assert.Equal(t, "prop-1", record["property"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"defaults pass", func(c *config.Config) {}, false},
		{"negative overlap", func(c *config.Config) { c.ChunkOverlap = -1 }, true},
		{"size equals overlap", func(c *config.Config) { c.ChunkSize = 100; c.ChunkOverlap = 100 }, true},
		{"zero top-k", func(c *config.Config) { c.TopK = 0 }, true},
		{"unknown store backend", func(c *config.Config) { c.StoreBackend = "redis" }, true},
		{"surrealdb backend", func(c *config.Config) { c.StoreBackend = "surrealdb" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
