package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/moodlist/internal/types"
)

func createTestClient(t *testing.T, handler http.HandlerFunc) *ExchangeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	// Set logger to error level to reduce test noise
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	client, err := NewExchangeClient(srv.URL, 5, logger)
	require.NoError(t, err)
	client.http.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(time.Millisecond)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewExchangeClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr error
	}{
		{name: "valid URL", baseURL: "http://127.0.0.1:8080"},
		{name: "trailing slash", baseURL: "http://127.0.0.1:8080/"},
		{name: "empty URL", baseURL: "", wantErr: ErrMissingBaseURL},
		{name: "only slash", baseURL: "/", wantErr: ErrMissingBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewExchangeClient(tt.baseURL, 0, logrus.New())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://127.0.0.1:8080", client.http.BaseURL)
			assert.Equal(t, 30*time.Second, client.http.GetClient().Timeout)
		})
	}
}

func TestExchangeClient_ExchangeCode(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, CodeExchangePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "auth-code", req.Code)

		writeJSON(w, http.StatusOK, types.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600})
	})

	tokens, err := client.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, &types.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}, tokens)
}

func TestExchangeClient_RefreshToken(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RefreshExchangePath, r.URL.Path)

		var req RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "refresh", req.RefreshToken)

		writeJSON(w, http.StatusOK, map[string]any{"access_token": "new-access", "expires_in": 1800})
	})

	tokens, err := client.RefreshToken(context.Background(), "refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", tokens.AccessToken)
	assert.Empty(t, tokens.RefreshToken)
	assert.Equal(t, 1800, tokens.ExpiresIn)
}

func TestExchangeClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        any
		wantMessage string
	}{
		{
			name:        "missing code",
			status:      http.StatusBadRequest,
			body:        ErrorResponse{Error: "Missing authorization code"},
			wantMessage: "Missing authorization code",
		},
		{
			name:        "upstream failure",
			status:      http.StatusInternalServerError,
			body:        ErrorResponse{Error: "Error requesting token from Spotify"},
			wantMessage: "Error requesting token from Spotify",
		},
		{
			name:        "success without token",
			status:      http.StatusOK,
			body:        map[string]any{"expires_in": 3600},
			wantMessage: "empty access token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := client.ExchangeCode(context.Background(), "code")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrExchangeFailed)
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestExchangeClient_RetriesGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, types.TokenResponse{AccessToken: "access", ExpiresIn: 3600})
	})

	tokens, err := client.RefreshToken(context.Background(), "refresh")
	require.NoError(t, err)
	assert.Equal(t, "access", tokens.AccessToken)
	assert.Equal(t, int32(3), calls.Load())
}

func TestExchangeClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing refresh_token"})
	})

	_, err := client.RefreshToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrExchangeFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExchangeClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	client, err := NewExchangeClient(srv.URL, 1, logger)
	require.NoError(t, err)
	client.http.SetRetryCount(0)

	_, err = client.ExchangeCode(context.Background(), "code")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExchangeFailed)
}
