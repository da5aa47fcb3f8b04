package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := models.DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1500*time.Millisecond, cfg.Polling.PollInterval(models.PipelineDownload))
	assert.Equal(t, 2*time.Second, cfg.Polling.PollInterval(models.PipelineStems))
	assert.Equal(t, 2*time.Second, cfg.Polling.PollInterval(models.PipelineKaraoke))
	assert.Equal(t, 500*time.Millisecond, cfg.Search.DebounceDelay())
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout())
}

func TestProjectConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ProjectConfig)
		errMsg string
	}{
		{"missing base url", func(c *models.ProjectConfig) { c.Backend.BaseURL = "" }, "backend.base_url is required"},
		{"non-http base url", func(c *models.ProjectConfig) { c.Backend.BaseURL = "ftp://host" }, "must be http(s)"},
		{"zero timeout", func(c *models.ProjectConfig) { c.Backend.TimeoutSeconds = 0 }, "backend.timeout_seconds"},
		{"poll interval too short", func(c *models.ProjectConfig) { c.Polling.StemsIntervalMs = 50 }, "polling.stems_interval_ms"},
		{"poll interval too long", func(c *models.ProjectConfig) { c.Polling.KaraokeIntervalMs = 120000 }, "polling.karaoke_interval_ms"},
		{"negative debounce", func(c *models.ProjectConfig) { c.Search.DebounceMs = -1 }, "search.debounce_ms"},
		{"zero min query length", func(c *models.ProjectConfig) { c.Search.MinQueryLength = 0 }, "search.min_query_length"},
		{"negative max results", func(c *models.ProjectConfig) { c.Search.MaxResults = -5 }, "search.max_results"},
		{"bad log format", func(c *models.ProjectConfig) { c.Log.Format = "xml" }, "log.format"},
		{"zero attempts", func(c *models.ProjectConfig) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"backoff inverted", func(c *models.ProjectConfig) { c.Retry.MaxBackoffMs = 10 }, "retry.max_backoff_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
