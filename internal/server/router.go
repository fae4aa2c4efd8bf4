// Package server hosts the token-exchange service and the OAuth callback
// endpoint used by the login flow.
//
// The exchange service keeps the OAuth client secret on the server side and
// exposes two JSON endpoints: one trading an authorization code for a token
// triplet and one trading a refresh token for a new access token. The login
// flow starts a short-lived server with a single /callback route instead.
package server

import (
	"net/http"
	"strings"
)

// Middleware wraps an http.Handler with additional behavior
type Middleware func(http.Handler) http.Handler

// Router is an http.ServeMux with method filtering and a middleware stack
type Router struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// Use appends middleware; the first added runs outermost
func (r *Router) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path. Other methods on path get a
// 405 JSON error.
func (r *Router) Handle(method, path string, handler http.Handler) {
	wrapped := r.apply(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.EqualFold(req.Method, method) {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		handler.ServeHTTP(w, req)
	}))
	r.mux.Handle(path, wrapped)
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}
