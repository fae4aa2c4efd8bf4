package auth

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/moodlist/internal/store"
	"github.com/toozej/moodlist/internal/types"
)

// MockExchanger is a mock implementation of the TokenExchanger interface
type MockExchanger struct {
	exchangeCodeFunc func(ctx context.Context, code string) (*types.TokenResponse, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (*types.TokenResponse, error)

	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
}

func (m *MockExchanger) ExchangeCode(ctx context.Context, code string) (*types.TokenResponse, error) {
	m.exchangeCalls.Add(1)
	if m.exchangeCodeFunc != nil {
		return m.exchangeCodeFunc(ctx, code)
	}
	return nil, errors.New("not implemented")
}

func (m *MockExchanger) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	m.refreshCalls.Add(1)
	if m.refreshTokenFunc != nil {
		return m.refreshTokenFunc(ctx, refreshToken)
	}
	return nil, errors.New("not implemented")
}

// failingStore fails every read
type failingStore struct{ *store.MemoryStore }

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seed(t *testing.T, s types.CredentialStore, access, refresh string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()
	if access != "" {
		require.NoError(t, s.Set(ctx, KeyAccessToken, access))
	}
	if refresh != "" {
		require.NoError(t, s.Set(ctx, KeyRefreshToken, refresh))
	}
	require.NoError(t, s.Set(ctx, KeyExpiration, strconv.FormatInt(expiresAt.UnixMilli(), 10)))
}

func newTestManager(s types.CredentialStore, ex types.TokenExchanger) *Manager {
	return NewManager(s, ex, quietLogger(), WithClock(func() time.Time { return fixedNow }))
}

func TestGetValidToken_NoAccessToken(t *testing.T) {
	ex := &MockExchanger{}
	m := newTestManager(store.NewMemoryStore(), ex)

	token, ok := m.GetValidToken(context.Background())
	assert.False(t, ok)
	assert.Empty(t, token)
	assert.Zero(t, ex.refreshCalls.Load())
}

func TestGetValidToken_NotExpired(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, "live", "r1", fixedNow.Add(time.Minute))
	ex := &MockExchanger{}
	m := newTestManager(s, ex)

	token, ok := m.GetValidToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "live", token)
	assert.Zero(t, ex.refreshCalls.Load())
}

func TestGetValidToken_ExpiredRefreshes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seed(t, s, "stale", "r1", fixedNow.Add(-time.Second))

	ex := &MockExchanger{
		refreshTokenFunc: func(_ context.Context, refreshToken string) (*types.TokenResponse, error) {
			assert.Equal(t, "r1", refreshToken)
			return &types.TokenResponse{AccessToken: "fresh", ExpiresIn: 3600}, nil
		},
	}
	m := newTestManager(s, ex)

	token, ok := m.GetValidToken(ctx)
	require.True(t, ok)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, int32(1), ex.refreshCalls.Load())

	creds, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", creds.AccessToken)
	assert.Equal(t, "r1", creds.RefreshToken)
	assert.True(t, creds.ExpiresAt.Equal(fixedNow.Add(time.Hour)))
}

func TestGetValidToken_ExactExpiryIsExpired(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, "stale", "", fixedNow)
	ex := &MockExchanger{}
	m := newTestManager(s, ex)

	_, ok := m.GetValidToken(context.Background())
	assert.False(t, ok)
}

func TestGetValidToken_UnparseableExpiryRefreshes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, KeyAccessToken, "stale"))
	require.NoError(t, s.Set(ctx, KeyRefreshToken, "r1"))
	require.NoError(t, s.Set(ctx, KeyExpiration, "soon"))

	ex := &MockExchanger{
		refreshTokenFunc: func(context.Context, string) (*types.TokenResponse, error) {
			return &types.TokenResponse{AccessToken: "fresh", ExpiresIn: 60}, nil
		},
	}
	m := newTestManager(s, ex)

	token, ok := m.GetValidToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, "fresh", token)
}

func TestRefresh_NoRefreshTokenMakesNoCall(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, "stale", "", fixedNow.Add(-time.Hour))
	ex := &MockExchanger{}
	m := newTestManager(s, ex)

	token, ok := m.GetValidToken(context.Background())
	assert.False(t, ok)
	assert.Empty(t, token)
	assert.Zero(t, ex.refreshCalls.Load())
}

func TestRefresh_FailureKeepsCredentials(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	expiresAt := fixedNow.Add(-time.Hour)
	seed(t, s, "stale", "r1", expiresAt)

	ex := &MockExchanger{
		refreshTokenFunc: func(context.Context, string) (*types.TokenResponse, error) {
			return nil, errors.New("upstream 500")
		},
	}
	m := newTestManager(s, ex)

	_, ok := m.Refresh(ctx)
	assert.False(t, ok)

	creds, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stale", creds.AccessToken)
	assert.Equal(t, "r1", creds.RefreshToken)
	assert.True(t, creds.ExpiresAt.Equal(expiresAt))
}

func TestRefresh_EmptyAccessTokenIsFailure(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, "stale", "r1", fixedNow.Add(-time.Hour))
	ex := &MockExchanger{
		refreshTokenFunc: func(context.Context, string) (*types.TokenResponse, error) {
			return &types.TokenResponse{}, nil
		},
	}
	m := newTestManager(s, ex)

	_, ok := m.Refresh(context.Background())
	assert.False(t, ok)
}

func TestRefresh_ForcedIgnoresExpiry(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, "revoked", "r1", fixedNow.Add(time.Hour))
	ex := &MockExchanger{
		refreshTokenFunc: func(context.Context, string) (*types.TokenResponse, error) {
			return &types.TokenResponse{AccessToken: "fresh", ExpiresIn: 3600}, nil
		},
	}
	m := newTestManager(s, ex)

	token, ok := m.Refresh(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, int32(1), ex.refreshCalls.Load())
}

func TestRefresh_ConcurrentCallsShareOneExchange(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, "stale", "r1", fixedNow.Add(-time.Hour))

	started := make(chan struct{})
	release := make(chan struct{})
	ex := &MockExchanger{
		refreshTokenFunc: func(context.Context, string) (*types.TokenResponse, error) {
			close(started)
			<-release
			return &types.TokenResponse{AccessToken: "fresh", ExpiresIn: 3600}, nil
		},
	}
	m := newTestManager(s, ex)

	const callers = 5
	results := make([]string, callers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = m.GetValidToken(context.Background())
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.GetValidToken(context.Background())
		}(i)
	}

	// Give the followers time to join the in-flight refresh
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), ex.refreshCalls.Load())
	for _, r := range results {
		assert.Equal(t, "fresh", r)
	}
}

func TestGetValidToken_StorageFailureDegrades(t *testing.T) {
	ex := &MockExchanger{}
	m := newTestManager(failingStore{store.NewMemoryStore()}, ex)

	token, ok := m.GetValidToken(context.Background())
	assert.False(t, ok)
	assert.Empty(t, token)

	_, ok = m.Refresh(context.Background())
	assert.False(t, ok)
	assert.Zero(t, ex.refreshCalls.Load())
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("stores triplet", func(t *testing.T) {
		s := store.NewMemoryStore()
		ex := &MockExchanger{
			exchangeCodeFunc: func(_ context.Context, code string) (*types.TokenResponse, error) {
				assert.Equal(t, "code-123", code)
				return &types.TokenResponse{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: 3600}, nil
			},
		}
		m := newTestManager(s, ex)

		require.NoError(t, m.Authorize(ctx, "code-123"))

		creds, err := m.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a1", creds.AccessToken)
		assert.Equal(t, "r1", creds.RefreshToken)
		assert.True(t, creds.Refreshable())
		assert.True(t, creds.ExpiresAt.Equal(fixedNow.Add(time.Hour)))
	})

	t.Run("missing code", func(t *testing.T) {
		ex := &MockExchanger{}
		m := newTestManager(store.NewMemoryStore(), ex)
		assert.ErrorIs(t, m.Authorize(ctx, ""), ErrMissingCode)
		assert.Zero(t, ex.exchangeCalls.Load())
	})

	t.Run("exchange failure", func(t *testing.T) {
		ex := &MockExchanger{
			exchangeCodeFunc: func(context.Context, string) (*types.TokenResponse, error) {
				return nil, errors.New("bad code")
			},
		}
		m := newTestManager(store.NewMemoryStore(), ex)
		assert.ErrorContains(t, m.Authorize(ctx, "code"), "bad code")
	})

	t.Run("empty access token", func(t *testing.T) {
		ex := &MockExchanger{
			exchangeCodeFunc: func(context.Context, string) (*types.TokenResponse, error) {
				return &types.TokenResponse{RefreshToken: "r1"}, nil
			},
		}
		m := newTestManager(store.NewMemoryStore(), ex)
		assert.ErrorIs(t, m.Authorize(ctx, "code"), ErrEmptyAccessToken)
	})
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	seed(t, s, "a1", "r1", fixedNow.Add(time.Hour))
	m := newTestManager(s, &MockExchanger{})

	require.NoError(t, m.Clear(ctx))

	creds, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, creds.AccessToken)
	assert.Empty(t, creds.RefreshToken)
	assert.True(t, creds.ExpiresAt.IsZero())
}
