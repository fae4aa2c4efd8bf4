package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// CallbackPath is the OAuth redirect route
const CallbackPath = "/callback"

// ErrInvalidState is sent when the callback's state does not match
var ErrInvalidState = errors.New("invalid state parameter")

// AuthorizeFunc completes the login with an authorization code
type AuthorizeFunc func(ctx context.Context, code string) error

// CallbackHandler handles a single OAuth authorization-code callback
type CallbackHandler struct {
	state     string
	authorize AuthorizeFunc

	results chan error
	once    sync.Once
	mu      sync.Mutex
	hit     bool
}

// NewCallbackHandler creates a callback handler expecting state.
// authorize is called with the returned code.
func NewCallbackHandler(state string, authorize AuthorizeFunc) *CallbackHandler {
	return &CallbackHandler{
		state:     state,
		authorize: authorize,
		results:   make(chan error, 1),
	}
}

// ServeHTTP validates the callback and completes authorization. Only the
// first callback is processed.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.send(ErrInvalidState)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.send(fmt.Errorf("authorization failed: %s %s", query.Get("error"), query.Get("error_description")))
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if err := h.authorize(r.Context(), code); err != nil {
		h.send(fmt.Errorf("token exchange failed: %w", err))
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(nil)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, successPage)
}

func (h *CallbackHandler) send(err error) {
	h.once.Do(func() {
		h.results <- err
		close(h.results)
	})
}

// Result receives exactly one outcome, nil on success, then closes
func (h *CallbackHandler) Result() <-chan error {
	return h.results
}

const successPage = `<!DOCTYPE html>
<html>
<head><title>moodlist</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4rem;">
<h1>✅ Logged in to Spotify</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>
`
