package models

import (
	"fmt"
	"net/url"
	"time"
)

// ProjectConfig is the top-level configuration for the ytdlstem client
type ProjectConfig struct {
	Backend BackendConfig `yaml:"backend" json:"backend" mapstructure:"backend"`
	Polling PollingConfig `yaml:"polling" json:"polling" mapstructure:"polling"`
	Search  SearchConfig  `yaml:"search" json:"search" mapstructure:"search"`
	Retry   RetryConfig   `yaml:"retry" json:"retry" mapstructure:"retry"`
	Output  OutputConfig  `yaml:"output" json:"output" mapstructure:"output"`
	Server  ServerConfig  `yaml:"server" json:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" json:"log" mapstructure:"log"`
}

// BackendConfig contains connection details for the processing backend
type BackendConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// PollingConfig holds the fixed status-poll interval of each pipeline
type PollingConfig struct {
	DownloadIntervalMs int `yaml:"download_interval_ms" json:"download_interval_ms" mapstructure:"download_interval_ms"`
	StemsIntervalMs    int `yaml:"stems_interval_ms" json:"stems_interval_ms" mapstructure:"stems_interval_ms"`
	KaraokeIntervalMs  int `yaml:"karaoke_interval_ms" json:"karaoke_interval_ms" mapstructure:"karaoke_interval_ms"`
}

// SearchConfig controls search-as-you-type
type SearchConfig struct {
	DebounceMs     int `yaml:"debounce_ms" json:"debounce_ms" mapstructure:"debounce_ms"`
	MinQueryLength int `yaml:"min_query_length" json:"min_query_length" mapstructure:"min_query_length"`
	MaxResults     int `yaml:"max_results" json:"max_results" mapstructure:"max_results"` // 0 keeps every result
}

// RetryConfig controls retry behavior for artifact fetching
// Submissions and jobs are never retried automatically
type RetryConfig struct {
	MaxAttempts      int   `yaml:"max_attempts" json:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int64 `yaml:"initial_backoff_ms" json:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int64 `yaml:"max_backoff_ms" json:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// OutputConfig controls where fetched artifacts are written
type OutputConfig struct {
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"` // Local path, file:// or s3:// URI
}

// ServerConfig contains settings of the local bridge server
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr" mapstructure:"addr"`
}

// LogConfig controls log verbosity and encoding
type LogConfig struct {
	Level  string `yaml:"level" json:"level" mapstructure:"level"`
	Format string `yaml:"format" json:"format" mapstructure:"format"` // text or json
}

// LogFormat values
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultConfig returns a sensible default configuration
func DefaultConfig() ProjectConfig {
	return ProjectConfig{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Polling: PollingConfig{
			DownloadIntervalMs: 1500,
			StemsIntervalMs:    2000,
			KaraokeIntervalMs:  2000,
		},
		Search: SearchConfig{
			DebounceMs:     500,
			MinQueryLength: 2,
		},
		Retry: RetryConfig{
			MaxAttempts:      5,
			InitialBackoffMs: 1000,
			MaxBackoffMs:     30000,
		},
		Output: OutputConfig{
			Dir: "./downloads",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
	}
}

// Validate checks if the ProjectConfig has all required fields and valid values
func (c *ProjectConfig) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url must be http(s), got %q", c.Backend.BaseURL)
	}

	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("backend.timeout_seconds must be > 0, got %d", c.Backend.TimeoutSeconds)
	}

	for name, ms := range map[string]int{
		"polling.download_interval_ms": c.Polling.DownloadIntervalMs,
		"polling.stems_interval_ms":    c.Polling.StemsIntervalMs,
		"polling.karaoke_interval_ms":  c.Polling.KaraokeIntervalMs,
	} {
		if ms < 100 || ms > 60000 {
			return fmt.Errorf("%s must be 100-60000, got %d", name, ms)
		}
	}

	if c.Search.DebounceMs < 0 {
		return fmt.Errorf("search.debounce_ms must be >= 0, got %d", c.Search.DebounceMs)
	}
	if c.Search.MinQueryLength < 1 {
		return fmt.Errorf("search.min_query_length must be >= 1, got %d", c.Search.MinQueryLength)
	}

	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be >= 0, got %d", c.Search.MaxResults)
	}

	if c.Log.Format != "" && c.Log.Format != LogFormatText && c.Log.Format != LogFormatJSON {
		return fmt.Errorf("log.format must be %q or %q, got %q", LogFormatText, LogFormatJSON, c.Log.Format)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.MaxBackoffMs < c.Retry.InitialBackoffMs {
		return fmt.Errorf("retry.max_backoff_ms (%d) must be >= retry.initial_backoff_ms (%d)",
			c.Retry.MaxBackoffMs, c.Retry.InitialBackoffMs)
	}

	return nil
}

// PollInterval returns the status-poll interval of a pipeline
func (c *PollingConfig) PollInterval(kind PipelineKind) time.Duration {
	switch kind {
	case PipelineStems:
		return time.Duration(c.StemsIntervalMs) * time.Millisecond
	case PipelineKaraoke:
		return time.Duration(c.KaraokeIntervalMs) * time.Millisecond
	default:
		return time.Duration(c.DownloadIntervalMs) * time.Millisecond
	}
}

// DebounceDelay returns the search quiescence delay
func (c *SearchConfig) DebounceDelay() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Timeout returns the per-request timeout for backend calls
func (c *BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
