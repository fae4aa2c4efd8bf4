// Package api provides the JSON client for the token-exchange service.
//
// The exchange service holds the OAuth client secret and trades an
// authorization code or a refresh token for access tokens. ExchangeClient
// implements types.TokenExchanger against it so the CLI never needs the
// secret itself.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/types"
	"github.com/toozej/moodlist/pkg/useragent"
)

// Exchange service routes
const (
	CodeExchangePath    = "/api/spotify-token"
	RefreshExchangePath = "/api/refresh-token"
)

var (
	// ErrExchangeFailed is returned when the exchange service answers non-2xx
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrMissingBaseURL is returned when no exchange service URL is configured
	ErrMissingBaseURL = errors.New("exchange service URL is required")
)

// ErrorResponse is the exchange service's error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// CodeRequest is the body of a code exchange
type CodeRequest struct {
	Code string `json:"code"`
}

// RefreshRequest is the body of a refresh exchange
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ExchangeClient talks to a remote token-exchange service
type ExchangeClient struct {
	http   *resty.Client
	logger *log.Entry
}

// NewExchangeClient creates a client for the exchange service at baseURL.
// Requests that end in 502 or 504 are retried twice with backoff.
func NewExchangeClient(baseURL string, timeoutSeconds int, logger *log.Logger) (*ExchangeClient, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}

	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeoutSeconds <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetLogger(logger).
		SetHeader("User-Agent", useragent.String()).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(4 * time.Second).
		AddRetryCondition(func(r *resty.Response, _ error) bool {
			return r != nil && (r.StatusCode() == http.StatusBadGateway || r.StatusCode() == http.StatusGatewayTimeout)
		})

	return &ExchangeClient{
		http:   httpClient,
		logger: logger.WithField("component", "exchange_client"),
	}, nil
}

// ExchangeCode trades an authorization code for a token triplet
func (c *ExchangeClient) ExchangeCode(ctx context.Context, code string) (*types.TokenResponse, error) {
	return c.post(ctx, "exchange_code", CodeExchangePath, CodeRequest{Code: code})
}

// RefreshToken trades a refresh token for a new access token
func (c *ExchangeClient) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	return c.post(ctx, "refresh_token", RefreshExchangePath, RefreshRequest{RefreshToken: refreshToken})
}

func (c *ExchangeClient) post(ctx context.Context, operation, path string, body any) (*types.TokenResponse, error) {
	logger := c.logger.WithFields(log.Fields{
		"operation": operation,
		"path":      path,
	})

	var (
		tokens  types.TokenResponse
		failure ErrorResponse
	)

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&tokens).
		SetError(&failure).
		Post(path)
	if err != nil {
		logger.WithError(err).Error("Exchange request failed")
		return nil, fmt.Errorf("failed to reach exchange service: %w", err)
	}

	logger = logger.WithFields(log.Fields{
		"status_code": resp.StatusCode(),
		"duration":    time.Since(start),
	})

	if resp.IsError() {
		message := failure.Error
		if message == "" {
			message = strings.TrimSpace(resp.String())
		}
		logger.WithField("error_message", message).Warn("Exchange service rejected request")
		return nil, fmt.Errorf("%w: status %d: %s", ErrExchangeFailed, resp.StatusCode(), message)
	}

	if tokens.AccessToken == "" {
		logger.Warn("Exchange response has no access token")
		return nil, fmt.Errorf("%w: empty access token", ErrExchangeFailed)
	}

	logger.Debug("Exchange succeeded")
	return &tokens, nil
}
