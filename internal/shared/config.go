package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override the Spotify credentials section.
const (
	EnvClientID    = "GAELON_CLIENT_ID"
	EnvRedirectURI = "GAELON_REDIRECT_URI"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	API         APIConfig         `toml:"api"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig is the static client configuration for the implicit grant.
//
// No client secret is involved, so nothing here is a runtime secret.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
}

// APIConfig tunes the Web API client.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables
	MaxPages       int     `toml:"max_pages"`  // 0 follows cursors until exhausted
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Timeout returns the configured request timeout; zero leaves the transport default.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local callback and dashboard server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for [http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate reports whether the Spotify section is usable for an authorize redirect.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientID == "your_spotify_client_id" {
		return fmt.Errorf("%w: credentials.spotify.client_id must be set", ErrMissingCredentials)
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: credentials.spotify.redirect_uri must be set", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
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

// ApplyEnv loads dotenv files (missing files are ignored) and applies
// GAELON_* overrides to the Spotify credentials.
func ApplyEnv(config *Config, files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}

	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if v := os.Getenv(EnvClientID); v != "" {
		config.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv(EnvRedirectURI); v != "" {
		config.Credentials.Spotify.RedirectURI = v
	}
	return nil
}

// ResolveConfig loads path when it exists, falling back to defaults, then applies env overrides.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := ApplyEnv(config, ".env"); err != nil {
		return nil, err
	}
	return config, nil
}
