package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Carteira
type Config struct {
	Environment string        `toml:"environment"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Sync        SyncConfig    `toml:"sync"`
	Logging     LoggingConfig `toml:"logging"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig holds the embedded database location.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds external API client configurations
type ClientsConfig struct {
	Yahoo YahooConfig `toml:"yahoo"`
	BCB   BCBConfig   `toml:"bcb"`
	FX    FXConfig    `toml:"fx"`
}

// YahooConfig holds quote provider configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 8 * time.Second
	}
	return d
}

// BCBConfig holds the central-bank SGS series API configuration.
// OvernightSeries and InflationSeries are SGS series codes (CDI and IPCA).
type BCBConfig struct {
	BaseURL         string `toml:"base_url"`
	Timeout         string `toml:"timeout"`
	OvernightSeries int    `toml:"overnight_series"`
	InflationSeries int    `toml:"inflation_series"`
}

// GetTimeout parses and returns the timeout duration
func (c *BCBConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 8 * time.Second
	}
	return d
}

// FXConfig holds the fallback exchange-rate endpoints used when the quote
// provider cannot supply a USD/BRL rate.
type FXConfig struct {
	AwesomeAPIURL string `toml:"awesomeapi_url"`
	ERAPIURL      string `toml:"erapi_url"`
	Timeout       string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FXConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 8 * time.Second
	}
	return d
}

// SyncConfig holds the market data refresh scheduler configuration
type SyncConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
	Attempts int    `toml:"attempts"`
}

// GetInterval parses and returns the sync interval duration
func (c *SyncConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "data/carteira",
			},
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL: "https://query1.finance.yahoo.com",
				UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
					"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
				Timeout: "8s",
			},
			BCB: BCBConfig{
				BaseURL:         "https://api.bcb.gov.br/dados/serie",
				Timeout:         "8s",
				OvernightSeries: 11,
				InflationSeries: 433,
			},
			FX: FXConfig{
				AwesomeAPIURL: "https://economia.awesomeapi.com.br/json/last/USD-BRL",
				ERAPIURL:      "https://open.er-api.com/v6/latest/USD",
				Timeout:       "8s",
			},
		},
		Sync: SyncConfig{
			Enabled:  true,
			Interval: "300s",
			Attempts: 5,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/carteira.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CARTEIRA_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("CARTEIRA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("CARTEIRA_DATA_PATH"); path != "" {
		config.Storage.Badger.Path = filepath.Join(path, "carteira")
	}

	if interval := os.Getenv("CARTEIRA_SYNC_INTERVAL"); interval != "" {
		config.Sync.Interval = interval
	}

	if attempts := os.Getenv("CARTEIRA_SYNC_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil && n > 0 {
			config.Sync.Attempts = n
		}
	}
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development":
		return false
	}
	return true
}
