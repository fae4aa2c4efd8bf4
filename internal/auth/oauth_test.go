package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, handler func(w http.ResponseWriter, form url.Values)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		handler(w, r.PostForm)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestExchanger(t *testing.T, tokenURL string) *OAuthExchanger {
	t.Helper()
	ex, err := NewOAuthExchanger(OAuthSettings{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://127.0.0.1:8080/callback",
		TokenURL:     tokenURL,
	}, quietLogger())
	require.NoError(t, err)
	return ex
}

func TestNewOAuthExchanger_RequiresCredentials(t *testing.T) {
	_, err := NewOAuthExchanger(OAuthSettings{ClientID: "id"}, quietLogger())
	assert.Error(t, err)
}

func TestOAuthExchanger_AuthCodeURL(t *testing.T) {
	ex := newTestExchanger(t, "")
	u, err := url.Parse(ex.AuthCodeURL("state-1"))
	require.NoError(t, err)

	assert.Equal(t, "accounts.spotify.com", u.Host)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:8080/callback", q.Get("redirect_uri"))
	assert.Equal(t, "user-read-email user-read-private user-top-read playlist-modify-private playlist-modify-public", q.Get("scope"))
}

func TestOAuthExchanger_ExchangeCode(t *testing.T) {
	srv := newTokenServer(t, func(w http.ResponseWriter, form url.Values) {
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, "code-123", form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a1","token_type":"Bearer","expires_in":3600,"refresh_token":"r1"}`))
	})
	ex := newTestExchanger(t, srv.URL)

	resp, err := ex.ExchangeCode(context.Background(), "code-123")
	require.NoError(t, err)
	assert.Equal(t, "a1", resp.AccessToken)
	assert.Equal(t, "r1", resp.RefreshToken)
	assert.InDelta(t, 3600, resp.ExpiresIn, 2)
}

func TestOAuthExchanger_ExchangeCodeUpstreamError(t *testing.T) {
	srv := newTokenServer(t, func(w http.ResponseWriter, _ url.Values) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})
	ex := newTestExchanger(t, srv.URL)

	_, err := ex.ExchangeCode(context.Background(), "bad")
	assert.ErrorContains(t, err, "invalid_grant")
}

func TestOAuthExchanger_RefreshToken(t *testing.T) {
	srv := newTokenServer(t, func(w http.ResponseWriter, form url.Values) {
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "r1", form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a2","token_type":"Bearer","expires_in":1800}`))
	})
	ex := newTestExchanger(t, srv.URL)

	resp, err := ex.RefreshToken(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", resp.AccessToken)
	assert.Empty(t, resp.RefreshToken)
	assert.InDelta(t, 1800, resp.ExpiresIn, 2)
}

func TestOAuthExchanger_MissingExpiryDefaults(t *testing.T) {
	srv := newTokenServer(t, func(w http.ResponseWriter, _ url.Values) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a2","token_type":"Bearer"}`))
	})
	ex := newTestExchanger(t, srv.URL)

	resp, err := ex.RefreshToken(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, defaultExpiresIn, resp.ExpiresIn)
}
