package services

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ytdlstem/ytdlstem/internal/models"
)

// LoadConfig loads configuration from file and merges with CLI flags
// Priority order (highest to lowest):
//  1. CLI flags (via viper bindings)
//  2. Environment variables (YTDLSTEM_BACKEND_BASE_URL, ...)
//  3. Configuration file
//  4. Default values
func LoadConfig(configFile string) (*models.ProjectConfig, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("ytdlstem")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/ytdlstem")
		viper.AddConfigPath("/etc/ytdlstem")
	}

	viper.SetEnvPrefix("YTDLSTEM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(models.DefaultConfig())

	// Config file is optional
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Build config manually from viper values so env overrides of nested keys apply
	config := models.ProjectConfig{
		Backend: models.BackendConfig{
			BaseURL:        viper.GetString("backend.base_url"),
			TimeoutSeconds: viper.GetInt("backend.timeout_seconds"),
		},
		Polling: models.PollingConfig{
			DownloadIntervalMs: viper.GetInt("polling.download_interval_ms"),
			StemsIntervalMs:    viper.GetInt("polling.stems_interval_ms"),
			KaraokeIntervalMs:  viper.GetInt("polling.karaoke_interval_ms"),
		},
		Search: models.SearchConfig{
			DebounceMs:     viper.GetInt("search.debounce_ms"),
			MinQueryLength: viper.GetInt("search.min_query_length"),
			MaxResults:     viper.GetInt("search.max_results"),
		},
		Retry: models.RetryConfig{
			MaxAttempts:      viper.GetInt("retry.max_attempts"),
			InitialBackoffMs: viper.GetInt64("retry.initial_backoff_ms"),
			MaxBackoffMs:     viper.GetInt64("retry.max_backoff_ms"),
		},
		Output: models.OutputConfig{
			Dir: viper.GetString("output.dir"),
		},
		Server: models.ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
		Log: models.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(d models.ProjectConfig) {
	viper.SetDefault("backend.base_url", d.Backend.BaseURL)
	viper.SetDefault("backend.timeout_seconds", d.Backend.TimeoutSeconds)
	viper.SetDefault("polling.download_interval_ms", d.Polling.DownloadIntervalMs)
	viper.SetDefault("polling.stems_interval_ms", d.Polling.StemsIntervalMs)
	viper.SetDefault("polling.karaoke_interval_ms", d.Polling.KaraokeIntervalMs)
	viper.SetDefault("search.debounce_ms", d.Search.DebounceMs)
	viper.SetDefault("search.min_query_length", d.Search.MinQueryLength)
	viper.SetDefault("search.max_results", d.Search.MaxResults)
	viper.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	viper.SetDefault("retry.initial_backoff_ms", d.Retry.InitialBackoffMs)
	viper.SetDefault("retry.max_backoff_ms", d.Retry.MaxBackoffMs)
	viper.SetDefault("output.dir", d.Output.Dir)
	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// GetConfigFilePath returns the path to the config file that was loaded
func GetConfigFilePath() string {
	return viper.ConfigFileUsed()
}

// SetConfigValue allows runtime override of config values
// Useful for CLI flag overrides
func SetConfigValue(key string, value interface{}) {
	viper.Set(key, value)
}
