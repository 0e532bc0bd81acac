package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

// Config defines the application configuration structure
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// APIConfig defines the market data API configuration
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	VsCurrency     string `mapstructure:"vs_currency"`
	Limit          int    `mapstructure:"limit"`
	Page           int    `mapstructure:"page"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StorageConfig defines where snapshots and exports are written
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	ParquetDir string `mapstructure:"parquet_dir"`
	XLSXPath   string `mapstructure:"xlsx_path"`
}

// DashboardConfig defines the dashboard server configuration
type DashboardConfig struct {
	Addr                 string `mapstructure:"addr"`
	RealtimeTTLSeconds   int    `mapstructure:"realtime_ttl_seconds"`
	HistoricalTTLSeconds int    `mapstructure:"historical_ttl_seconds"`
	TopN                 int    `mapstructure:"top_n"`
}

// envBindings maps nested config keys to environment variables
var envBindings = map[string]string{
	"api.base_url":        "CRYPTODASH_API_BASE_URL",
	"api.api_key":         "CRYPTODASH_API_KEY",
	"api.vs_currency":     "CRYPTODASH_VS_CURRENCY",
	"api.limit":           "CRYPTODASH_LIMIT",
	"api.page":            "CRYPTODASH_PAGE",
	"api.timeout_seconds": "CRYPTODASH_API_TIMEOUT",

	"storage.data_dir":    "CRYPTODASH_DATA_DIR",
	"storage.parquet_dir": "CRYPTODASH_PARQUET_DIR",
	"storage.xlsx_path":   "CRYPTODASH_XLSX_PATH",

	"dashboard.addr":                   "CRYPTODASH_ADDR",
	"dashboard.realtime_ttl_seconds":   "CRYPTODASH_REALTIME_TTL",
	"dashboard.historical_ttl_seconds": "CRYPTODASH_HISTORICAL_TTL",
	"dashboard.top_n":                  "CRYPTODASH_TOP_N",
}

// LoadConfig loads configuration from file and overrides with environment variables.
// A missing config file is not an error.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CRYPTODASH")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			slog.Debug("Config file not found, using environment and defaults", slog.String("path", path))
		default:
			slog.Warn("Error reading config file, using environment and defaults",
				slog.String("path", path), slog.Any("error", err))
		}
	} else {
		slog.Debug("Loaded config file", slog.String("path", v.ConfigFileUsed()))
	}

	// Environment variables take precedence over the file
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyDefaults(&config)
	return config, nil
}

// applyDefaults sets default values for any config values not set from file or environment
func applyDefaults(config *Config) {
	// API defaults
	if config.API.BaseURL == "" {
		config.API.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if config.API.VsCurrency == "" {
		config.API.VsCurrency = "usd"
	}
	if config.API.Limit <= 0 {
		config.API.Limit = 100
	}
	if config.API.Page <= 0 {
		config.API.Page = 1
	}
	if config.API.TimeoutSeconds <= 0 {
		config.API.TimeoutSeconds = 10
	}

	// Storage defaults
	if config.Storage.DataDir == "" {
		config.Storage.DataDir = "data"
	}
	if config.Storage.ParquetDir == "" {
		config.Storage.ParquetDir = "parquet_data"
	}
	if config.Storage.XLSXPath == "" {
		config.Storage.XLSXPath = "crypto_history.xlsx"
	}

	// Dashboard defaults
	if config.Dashboard.Addr == "" {
		config.Dashboard.Addr = ":8501"
	}
	if config.Dashboard.RealtimeTTLSeconds <= 0 {
		config.Dashboard.RealtimeTTLSeconds = 60
	}
	if config.Dashboard.HistoricalTTLSeconds <= 0 {
		config.Dashboard.HistoricalTTLSeconds = 3600
	}
	if config.Dashboard.TopN <= 0 {
		config.Dashboard.TopN = 10
	}
}
