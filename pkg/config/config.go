// Package config provides secure configuration management for the moodlist application.
//
// This package handles loading configuration from environment variables and .env files
// with built-in security measures to prevent path traversal attacks. It uses the
// github.com/caarlos0/env library for environment variable parsing and
// github.com/joho/godotenv for .env file loading.
//
// The configuration loading follows a priority order:
//  1. Environment variables (highest priority)
//  2. .env file in current working directory
//  3. Default values
//
// Example usage:
//
//	import "github.com/toozej/moodlist/pkg/config"
//
//	func main() {
//		conf := config.GetEnvVars()
//		fmt.Printf("Store driver: %s\n", conf.Store.Driver)
//	}
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the main application configuration with nested service configurations.
type Config struct {
	Spotify  SpotifyConfig  `envPrefix:"SPOTIFY_"`
	Store    StoreConfig    `envPrefix:"STORE_"`
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Exchange ExchangeConfig `envPrefix:"TOKEN_EXCHANGE_"`
	Playlist PlaylistConfig `envPrefix:"PLAYLIST_"`
}

// SpotifyConfig represents the configuration for Spotify API integration.
type SpotifyConfig struct {
	// ClientID is the Spotify application client ID.
	ClientID string `env:"CLIENT_ID"`

	// ClientSecret is the Spotify application client secret. Only the token
	// exchange needs it; the CLI can run without it when TOKEN_EXCHANGE_URL is set.
	ClientSecret string `env:"CLIENT_SECRET"` // #nosec G117 -- OAuth client secret, expected in config

	// RedirectURL is the callback URL for OAuth authentication.
	RedirectURL string `env:"REDIRECT_URI" envDefault:"http://127.0.0.1:8080/callback"`

	// APIBaseURL is the Web API base path.
	APIBaseURL string `env:"API_BASE_URL" envDefault:"https://api.spotify.com/v1"`

	// AuthURL and TokenURL override the accounts service endpoints.
	AuthURL  string `env:"AUTH_URL"`
	TokenURL string `env:"TOKEN_URL"`

	// Market is the region used for artist top tracks.
	Market string `env:"MARKET" envDefault:"ES"`

	// Scopes overrides the requested OAuth scopes.
	Scopes []string `env:"SCOPES" envSeparator:" "`

	// HTTPTimeout is the timeout for HTTP requests in seconds.
	HTTPTimeout int `env:"HTTP_TIMEOUT" envDefault:"30"`
}

// StoreConfig selects the credential and favorites store backend.
type StoreConfig struct {
	// Driver is one of file, sqlite or memory.
	Driver string `env:"DRIVER" envDefault:"file"`

	// Path is the store file or database path.
	Path string `env:"PATH" envDefault:"~/.config/moodlist/store.json"`
}

// ServerConfig represents the server configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8080"`
}

// ExchangeConfig points the CLI at a running token-exchange service.
type ExchangeConfig struct {
	// URL is the base URL of the exchange service; empty exchanges in process.
	URL string `env:"URL"`
}

// PlaylistConfig tunes playlist assembly.
type PlaylistConfig struct {
	// RequestsPerSecond paces source fetches; zero disables pacing.
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND" envDefault:"5"`

	// Burst is the number of requests allowed at once.
	Burst int `env:"BURST" envDefault:"5"`
}

// GetEnvVars loads and returns the application configuration from environment
// variables and a .env file in the current working directory.
//
// The function will terminate the program with os.Exit(1) if loading or
// validation fails. Use Load to receive the error instead.
func GetEnvVars() Config {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Printf("Error getting current working directory: %s\n", err)
		os.Exit(1)
	}

	conf, err := Load(cwd)
	if err != nil {
		fmt.Printf("Configuration error: %s\n", err)
		fmt.Println("Please check your configuration and try again.")
		os.Exit(1)
	}

	return conf
}

// Load reads an optional .env file from dir, parses the environment and validates the result.
//
// Security measures implemented:
//   - Path traversal detection and prevention using filepath.Rel
//   - Absolute path resolution for secure path operations
//   - Safe file existence checking before loading
func Load(dir string) (Config, error) {
	var conf Config

	// Construct secure path for .env file within dir
	envPath := filepath.Join(dir, ".env")

	// Ensure the path is within our expected directory (prevent traversal)
	cleanEnvPath, err := filepath.Abs(envPath)
	if err != nil {
		return conf, fmt.Errorf("error resolving .env file path: %w", err)
	}
	cleanDir, err := filepath.Abs(dir)
	if err != nil {
		return conf, fmt.Errorf("error resolving directory: %w", err)
	}
	relPath, err := filepath.Rel(cleanDir, cleanEnvPath)
	if err != nil || strings.Contains(relPath, "..") {
		return conf, ErrPathTraversal
	}

	// Load .env file if it exists
	if _, err := os.Stat(cleanEnvPath); err == nil {
		if err := godotenv.Load(cleanEnvPath); err != nil {
			return conf, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	if err := env.Parse(&conf); err != nil {
		return conf, fmt.Errorf("error parsing configuration from environment: %w", err)
	}

	if err := validateConfig(&conf); err != nil {
		return conf, err
	}

	return conf, nil
}

// Address returns the server address
func (s ServerConfig) Address() string {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ResolvePath returns the store path with tilde expansion, ensuring the directory exists.
// The sqlite ":memory:" path is returned unchanged.
func (s StoreConfig) ResolvePath() (string, error) {
	storePath := s.Path
	if storePath == ":memory:" || s.Driver == "memory" {
		return storePath, nil
	}

	// Handle tilde expansion
	if strings.HasPrefix(storePath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		storePath = filepath.Join(homeDir, storePath[2:])
	}

	absPath, err := filepath.Abs(storePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	storeDir := filepath.Dir(absPath)
	if err := os.MkdirAll(storeDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create store directory %s: %w", storeDir, err)
	}

	return absPath, nil
}

// validateConfig validates the configuration
func validateConfig(conf *Config) error {
	var errs []string

	if conf.Server.Port < 1 || conf.Server.Port > 65535 {
		errs = append(errs, ErrInvalidServerPort.Error())
	}

	switch conf.Store.Driver {
	case "file", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Sprintf("%s: %q", ErrInvalidStoreDriver, conf.Store.Driver))
	}

	if conf.Spotify.APIBaseURL == "" {
		errs = append(errs, ErrMissingAPIBaseURL.Error())
	}
	if conf.Spotify.HTTPTimeout <= 0 {
		errs = append(errs, ErrInvalidHTTPTimeout.Error())
	}
	if conf.Playlist.RequestsPerSecond < 0 {
		errs = append(errs, ErrInvalidRequestRate.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// ValidateExchange reports whether code and refresh exchanges can be performed,
// either through a remote exchange service or in process with the client secret.
func (c Config) ValidateExchange() error {
	if c.Spotify.ClientID == "" {
		return ErrMissingSpotifyClientID
	}
	if c.Exchange.URL == "" && c.Spotify.ClientSecret == "" {
		return ErrMissingSpotifyClientSecret
	}
	return nil
}
