package spotify

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is the wait, in seconds, assumed when a 429 carries no Retry-After
const DefaultRetryAfter = 2

// Sentinel errors matched by the typed errors below
var (
	ErrAuth        = errors.New("spotify: not authenticated")
	ErrRateLimited = errors.New("spotify: rate limited")
	ErrProvider    = errors.New("spotify: provider error")
	ErrNetwork     = errors.New("spotify: network error")

	// ErrQueryTooShort is returned by catalog searches below the minimum query length
	ErrQueryTooShort = errors.New("search query must be at least 2 characters")

	// ErrTooManyIDs is returned when a bulk lookup exceeds its batch ceiling
	ErrTooManyIDs = errors.New("too many ids for a single request")
)

// AuthError means no usable access token could be obtained or the provider rejected it
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("spotify: not authenticated: %s", e.Reason)
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// RateLimitError means the provider throttled the request
type RateLimitError struct {
	// RetryAfter is the provider's requested wait in seconds
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("spotify: rate limited, retry after %d seconds", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Wait returns RetryAfter as a duration
func (e *RateLimitError) Wait() time.Duration {
	return time.Duration(e.RetryAfter) * time.Second
}

// ProviderError is any other non-success response
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("spotify: request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("spotify: request failed with status %d: %s", e.StatusCode, body)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// NetworkError wraps a transport-level failure
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("spotify: network error: %v", e.Err)
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date
func parseRetryAfter(value string, now time.Time) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultRetryAfter
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return seconds
	}

	if when, err := http.ParseTime(value); err == nil {
		until := when.Sub(now)
		if until <= 0 {
			return 0
		}
		return int(math.Ceil(until.Seconds()))
	}

	return DefaultRetryAfter
}
