package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Letterboxd LetterboxdConfig `toml:"letterboxd"`
	Harvest    HarvestConfig    `toml:"harvest"`
	Enrich     EnrichConfig     `toml:"enrich"`
	Database   DatabaseConfig   `toml:"database"`
	Server     ServerConfig     `toml:"server"`
}

// LetterboxdConfig contains settings for the HTTP client that fetches member and film pages.
type LetterboxdConfig struct {
	BaseURL           string  `toml:"base_url"`
	UserAgent         string  `toml:"user_agent"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"` // 0 disables the limiter
}

// HarvestConfig bounds pagination of a single member list.
type HarvestConfig struct {
	MaxPages    int `toml:"max_pages"`
	PageDelayMS int `toml:"page_delay_ms"`
}

// EnrichConfig controls poster backfilling for shared films.
type EnrichConfig struct {
	BatchSize          int      `toml:"batch_size"`
	BatchDelayMS       int      `toml:"batch_delay_ms"`
	PlaceholderMarkers []string `toml:"placeholder_markers"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Timeout returns the HTTP client timeout as a [time.Duration].
func (c LetterboxdConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PageDelay returns the pause between consecutive page fetches.
func (c HarvestConfig) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMS) * time.Millisecond
}

// BatchDelay returns the pause between enrichment batches.
func (c EnrichConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMS) * time.Millisecond
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate reports the first nonsensical value in the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Letterboxd.BaseURL == "":
		return fmt.Errorf("%w: letterboxd.base_url is empty", ErrInvalidConfig)
	case c.Letterboxd.TimeoutSeconds < 0:
		return fmt.Errorf("%w: letterboxd.timeout_seconds must not be negative", ErrInvalidConfig)
	case c.Letterboxd.RequestsPerSecond < 0:
		return fmt.Errorf("%w: letterboxd.requests_per_second must not be negative", ErrInvalidConfig)
	case c.Harvest.MaxPages <= 0:
		return fmt.Errorf("%w: harvest.max_pages must be positive", ErrInvalidConfig)
	case c.Harvest.PageDelayMS < 0:
		return fmt.Errorf("%w: harvest.page_delay_ms must not be negative", ErrInvalidConfig)
	case c.Enrich.BatchSize <= 0:
		return fmt.Errorf("%w: enrich.batch_size must be positive", ErrInvalidConfig)
	case c.Enrich.BatchDelayMS < 0:
		return fmt.Errorf("%w: enrich.batch_delay_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
