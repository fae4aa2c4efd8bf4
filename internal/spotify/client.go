// Package spotify provides the authenticated fetch client for the Spotify Web
// API and the catalog lookups built on it.
//
// Client.Request attaches a bearer token from the token manager, retries once
// after a forced refresh when the provider answers 401, and maps every other
// failure to one of AuthError, RateLimitError, ProviderError or NetworkError.
// It never sleeps or retries on 429; backoff is left to the caller.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/types"
	"github.com/toozej/moodlist/pkg/config"
	"github.com/toozej/moodlist/pkg/useragent"
)

// Client is the authenticated fetch client
type Client struct {
	http   *resty.Client
	tokens types.TokenSource
	logger *logrus.Logger
	now    func() time.Time
}

// RequestOptions customizes a single request. Method defaults to GET.
type RequestOptions struct {
	Method  string
	Query   url.Values
	Headers map[string]string
	Body    any
}

// NewClient creates a fetch client rooted at cfg.APIBaseURL
func NewClient(cfg config.SpotifyConfig, tokens types.TokenSource, logger *logrus.Logger) *Client {
	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.spotify.com/v1"
	}

	timeout := time.Duration(cfg.HTTPTimeout) * time.Second
	if cfg.HTTPTimeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetLogger(logger).
		SetHeader("User-Agent", useragent.String()).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// Request performs an authenticated request against endpoint and decodes the
// JSON response into out. out may be nil when the body is not needed.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	logger := c.logger.WithFields(logrus.Fields{
		"component": "spotify_client",
		"operation": "request",
		"endpoint":  endpoint,
	})

	token, ok := c.tokens.GetValidToken(ctx)
	if !ok {
		logger.Debug("No valid access token, skipping request")
		return &AuthError{Reason: "no valid access token"}
	}

	resp, err := c.do(ctx, endpoint, opts, token)
	if err != nil {
		return err
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		logger.Info("🔄 Access token rejected, forcing refresh")

		token, ok = c.tokens.Refresh(ctx)
		if !ok {
			return &AuthError{Reason: "access token rejected and refresh failed"}
		}

		resp, err = c.do(ctx, endpoint, opts, token)
		if err != nil {
			return err
		}
	}

	return c.handle(resp, logger, out)
}

func (c *Client) do(ctx context.Context, endpoint string, opts RequestOptions, token string) (*resty.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")

	if len(opts.Query) > 0 {
		req.SetQueryParamsFromValues(opts.Query)
	}
	if len(opts.Headers) > 0 {
		req.SetHeaders(opts.Headers)
	}
	if opts.Body != nil {
		req.SetBody(opts.Body)
	}

	start := c.now()
	resp, err := req.Execute(method, endpoint)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"component": "spotify_client",
			"method":    method,
			"endpoint":  endpoint,
		}).Warn("Request failed before a response was received")
		return nil, &NetworkError{Err: err}
	}

	c.logger.WithFields(logrus.Fields{
		"component":   "spotify_client",
		"method":      method,
		"endpoint":    endpoint,
		"status_code": resp.StatusCode(),
		"duration_ms": c.now().Sub(start).Milliseconds(),
	}).Debug("Request completed")

	return resp, nil
}

func (c *Client) handle(resp *resty.Response, logger *logrus.Entry, out any) error {
	status := resp.StatusCode()

	switch {
	case status >= 200 && status < 300:
		body := resp.Body()
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil

	case status == http.StatusUnauthorized:
		logger.Warn("Access token rejected after refresh")
		return &AuthError{Reason: "access token rejected"}

	case status == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header().Get("Retry-After"), c.now())
		logger.WithField("retry_after", retryAfter).Warn("Rate limited by provider")
		return &RateLimitError{RetryAfter: retryAfter}

	default:
		logger.WithField("status_code", status).Warn("Provider returned an error")
		return &ProviderError{StatusCode: status, Body: resp.String()}
	}
}
