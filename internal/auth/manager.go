// Package auth owns the token lifecycle: storing issued credentials, checking
// expiry and refreshing through the refresh-code exchange.
//
// The Manager is the only writer of the token fields in the credential store.
// Its getters never fail loudly; any storage or exchange problem degrades to
// "no token" and is logged.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/types"
)

// Credential store keys
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyExpiration   = "expiration_timestamp"
)

var (
	// ErrMissingCode is returned when Authorize is called without a code
	ErrMissingCode = errors.New("authorization code is required")

	// ErrEmptyAccessToken is returned when an exchange succeeds without an access token
	ErrEmptyAccessToken = errors.New("token exchange returned no access token")
)

// Credentials is the stored token triplet
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Refreshable reports whether a refresh token is present
func (c Credentials) Refreshable() bool {
	return c.RefreshToken != ""
}

// Expired reports whether the access token is no longer valid at now
func (c Credentials) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Manager checks token expiry and coordinates refreshes
type Manager struct {
	store     types.CredentialStore
	exchanger types.TokenExchanger
	logger    *logrus.Logger
	now       func() time.Time

	mu       sync.Mutex
	inflight *refreshCall
}

// refreshCall is a refresh shared by every caller that arrives while it runs
type refreshCall struct {
	done  chan struct{}
	token string
	ok    bool
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces time.Now for expiry calculations
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a token manager over store using exchanger for refreshes
func NewManager(store types.CredentialStore, exchanger types.TokenExchanger, logger *logrus.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		exchanger: exchanger,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetValidToken returns the stored access token if it has not expired,
// refreshing it otherwise. ok is false when no usable token exists.
func (m *Manager) GetValidToken(ctx context.Context) (string, bool) {
	creds, err := m.load(ctx)
	if err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"component": "token_manager",
			"operation": "get_valid_token",
		}).Warn("Could not read stored credentials")
		return "", false
	}

	if creds.AccessToken == "" {
		m.logger.WithFields(logrus.Fields{
			"component": "token_manager",
			"operation": "get_valid_token",
		}).Debug("No access token stored")
		return "", false
	}

	if !creds.Expired(m.now()) {
		return creds.AccessToken, true
	}

	m.logger.WithFields(logrus.Fields{
		"component":  "token_manager",
		"operation":  "get_valid_token",
		"expired_at": creds.ExpiresAt,
	}).Debug("Access token expired, refreshing")

	return m.Refresh(ctx)
}

// Refresh exchanges the stored refresh token for a new access token.
// Concurrent callers share a single in-flight exchange.
// Stored credentials are left untouched on failure.
func (m *Manager) Refresh(ctx context.Context) (string, bool) {
	m.mu.Lock()
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.ok
		case <-ctx.Done():
			return "", false
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	m.mu.Unlock()

	call.token, call.ok = m.refresh(ctx)

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	close(call.done)

	return call.token, call.ok
}

func (m *Manager) refresh(ctx context.Context) (string, bool) {
	logger := m.logger.WithFields(logrus.Fields{
		"component": "token_manager",
		"operation": "refresh",
	})

	refreshToken, ok, err := m.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		logger.WithError(err).Warn("Could not read refresh token")
		return "", false
	}
	if !ok || refreshToken == "" {
		logger.Debug("No refresh token stored, re-authorization required")
		return "", false
	}

	resp, err := m.exchanger.RefreshToken(ctx, refreshToken)
	if err != nil {
		logger.WithError(err).Warn("Token refresh failed")
		return "", false
	}
	if resp == nil || resp.AccessToken == "" {
		logger.Warn("Token refresh returned no access token")
		return "", false
	}

	expiresAt := m.expiresAt(resp.ExpiresIn)
	if err := m.store.Set(ctx, KeyAccessToken, resp.AccessToken); err != nil {
		logger.WithError(err).Warn("Could not persist refreshed access token")
	} else if err := m.store.Set(ctx, KeyExpiration, formatExpiry(expiresAt)); err != nil {
		logger.WithError(err).Warn("Could not persist refreshed token expiry")
	}

	logger.WithField("expires_at", expiresAt).Info("🔄 Access token refreshed")
	return resp.AccessToken, true
}

// Authorize exchanges an authorization code and stores the issued credentials
func (m *Manager) Authorize(ctx context.Context, code string) error {
	if code == "" {
		return ErrMissingCode
	}

	resp, err := m.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if resp == nil || resp.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	expiresAt := m.expiresAt(resp.ExpiresIn)
	entries := []struct{ key, value string }{
		{KeyAccessToken, resp.AccessToken},
		{KeyRefreshToken, resp.RefreshToken},
		{KeyExpiration, formatExpiry(expiresAt)},
	}
	for _, e := range entries {
		if err := m.store.Set(ctx, e.key, e.value); err != nil {
			return fmt.Errorf("failed to store %s: %w", e.key, err)
		}
	}

	m.logger.WithFields(logrus.Fields{
		"component":   "token_manager",
		"operation":   "authorize",
		"expires_at":  expiresAt,
		"refreshable": resp.RefreshToken != "",
	}).Info("💾 Credentials stored")

	return nil
}

// Clear removes the stored token triplet
func (m *Manager) Clear(ctx context.Context) error {
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyExpiration} {
		if err := m.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}

// Status returns the stored credentials without refreshing
func (m *Manager) Status(ctx context.Context) (Credentials, error) {
	return m.load(ctx)
}

func (m *Manager) load(ctx context.Context) (Credentials, error) {
	var creds Credentials

	access, _, err := m.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return creds, err
	}
	refresh, _, err := m.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return creds, err
	}
	expiration, ok, err := m.store.Get(ctx, KeyExpiration)
	if err != nil {
		return creds, err
	}

	creds.AccessToken = access
	creds.RefreshToken = refresh
	if ok {
		// An unparseable expiry stays zero and reads as expired
		if ms, err := strconv.ParseInt(expiration, 10, 64); err == nil {
			creds.ExpiresAt = time.UnixMilli(ms)
		}
	}
	return creds, nil
}

func (m *Manager) expiresAt(expiresIn int) time.Time {
	return m.now().Add(time.Duration(expiresIn) * time.Second)
}

func formatExpiry(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
