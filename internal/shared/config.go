package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/tunesub/internal/models"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend    BackendConfig   `toml:"backend"`
	Catalog    CatalogConfig   `toml:"catalog"`
	Spotify    SpotifyConfig   `toml:"spotify"`
	Browse     BrowseConfig    `toml:"browse"`
	Search     SearchConfig    `toml:"search"`
	Player     PlayerConfig    `toml:"player"`
	Log        LogConfig       `toml:"log"`
	Categories models.Taxonomy `toml:"categories"`
}

// BackendConfig points at the playlist subscription backend.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// CatalogConfig configures the preview catalog client.
type CatalogConfig struct {
	BaseURL        string  `toml:"base_url"`
	Country        string  `toml:"country"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second
	Burst          int     `toml:"burst"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// SpotifyConfig contains Spotify API credentials for the direct listing source.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Market       string `toml:"market"`
}

// BrowseConfig contains result session settings.
type BrowseConfig struct {
	DefaultCategory string `toml:"default_category"`
	PageSize        int    `toml:"page_size"`
	Source          string `toml:"source"`
}

// SearchConfig contains debounce timings in milliseconds.
type SearchConfig struct {
	DebounceMS int `toml:"debounce_ms"`
	GraceMS    int `toml:"grace_ms"`
}

// PlayerConfig names the external command used to play previews.
type PlayerConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

const (
	SourceBackend = "backend"
	SourceSpotify = "spotify"
)

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if _, err := toml.Decode(string(data), config); err != nil {
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

// Validate checks the settings the result session and debouncer rely on.
func (c *Config) Validate() error {
	switch {
	case c.Browse.PageSize <= 0:
		return fmt.Errorf("%w: browse.page_size must be positive", ErrInvalidConfig)
	case c.Search.DebounceMS <= 0:
		return fmt.Errorf("%w: search.debounce_ms must be positive", ErrInvalidConfig)
	case c.Search.GraceMS < 0:
		return fmt.Errorf("%w: search.grace_ms must not be negative", ErrInvalidConfig)
	case c.Browse.Source != SourceBackend && c.Browse.Source != SourceSpotify:
		return fmt.Errorf("%w: unknown browse.source %q", ErrInvalidConfig, c.Browse.Source)
	case c.Browse.DefaultCategory == "":
		return fmt.Errorf("%w: browse.default_category is required", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// DebounceDelay is the settle window before a search query is committed.
func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}

// GraceDelay is the pause before an emptied search box returns to browsing.
func (c *Config) GraceDelay() time.Duration {
	return time.Duration(c.Search.GraceMS) * time.Millisecond
}

// BackendTimeout returns the backend HTTP timeout.
func (c *Config) BackendTimeout() time.Duration {
	return seconds(c.Backend.TimeoutSeconds, 15)
}

// CatalogTimeout returns the catalog HTTP timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return seconds(c.Catalog.TimeoutSeconds, 10)
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
