// Package config provides error definitions for configuration-related errors.
package config

import "errors"

// Configuration validation errors
var (
	// ErrMissingSpotifyClientID is returned when Spotify Client ID is not provided
	ErrMissingSpotifyClientID = errors.New("spotify client ID is required")

	// ErrMissingSpotifyClientSecret is returned when the secret is needed for in-process exchanges
	ErrMissingSpotifyClientSecret = errors.New("spotify client secret is required unless TOKEN_EXCHANGE_URL is set")

	// ErrMissingAPIBaseURL is returned when the Web API base URL is empty
	ErrMissingAPIBaseURL = errors.New("spotify API base URL is required")

	// ErrInvalidHTTPTimeout is returned for non-positive timeouts
	ErrInvalidHTTPTimeout = errors.New("spotify HTTP timeout must be greater than 0")

	// ErrInvalidServerPort is returned for ports outside 1-65535
	ErrInvalidServerPort = errors.New("server port must be between 1 and 65535")

	// ErrInvalidStoreDriver is returned for unknown store backends
	ErrInvalidStoreDriver = errors.New("store driver must be one of file, sqlite, memory")

	// ErrInvalidRequestRate is returned for negative request rates
	ErrInvalidRequestRate = errors.New("playlist requests per second cannot be negative")

	// ErrPathTraversal is returned when the .env path escapes its directory
	ErrPathTraversal = errors.New(".env file path traversal detected")
)
