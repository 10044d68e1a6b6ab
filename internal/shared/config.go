package shared

import (
	"bytes"
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
	TMDB      TMDBConfig      `toml:"tmdb"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	Explorer  ExplorerConfig  `toml:"explorer"`
	Favorites FavoritesConfig `toml:"favorites"`
}

// TMDBConfig contains catalog API credentials and endpoints.
type TMDBConfig struct {
	APIKey          string  `toml:"api_key"`
	ReadAccessToken string  `toml:"read_access_token"`
	BaseURL         string  `toml:"base_url"`
	AuthURL         string  `toml:"auth_url"`
	ImageBaseURL    string  `toml:"image_base_url"`
	Language        string  `toml:"language"`
	RateLimit       float64 `toml:"rate_limit"`
}

// HasCredentials reports whether either an API key or a read access token is set.
func (c TMDBConfig) HasCredentials() bool {
	return c.APIKey != "" || c.ReadAccessToken != ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the local callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig bounds the external authorization handshake.
type AuthConfig struct {
	TimeoutSeconds   int `toml:"timeout_seconds"`
	ExchangeAttempts int `toml:"exchange_attempts"`
}

// Timeout returns the handshake timeout, defaulting to two minutes.
func (c AuthConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExplorerConfig contains explorer pagination settings.
type ExplorerConfig struct {
	MaxPages       int `toml:"max_pages"`
	LandingPerPage int `toml:"landing_per_page"`
}

// FavoritesConfig controls the legacy favorites cache.
type FavoritesConfig struct {
	LegacyWriteThrough bool `toml:"legacy_write_through"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values. TMDB_API_KEY overrides tmdb.api_key.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.applyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// LoadOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

func (c *Config) applyEnv() {
	if key := os.Getenv("TMDB_API_KEY"); key != "" {
		c.TMDB.APIKey = key
	}
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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
