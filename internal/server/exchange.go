package server

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/api"
	"github.com/toozej/moodlist/internal/types"
)

// ExchangeHandler serves the code and refresh exchanges over JSON
type ExchangeHandler struct {
	exchanger types.TokenExchanger
	logger    *log.Logger
}

// NewExchangeHandler creates handlers backed by exchanger
func NewExchangeHandler(exchanger types.TokenExchanger, logger *log.Logger) *ExchangeHandler {
	return &ExchangeHandler{
		exchanger: exchanger,
		logger:    logger,
	}
}

// NewExchangeRouter wires the exchange endpoints and a health check
func NewExchangeRouter(exchanger types.TokenExchanger, logger *log.Logger) *Router {
	h := NewExchangeHandler(exchanger, logger)

	router := NewRouter()
	router.Use(RequestID, Logging(logger))
	router.Handle(http.MethodPost, api.CodeExchangePath, http.HandlerFunc(h.ExchangeCode))
	router.Handle(http.MethodPost, api.RefreshExchangePath, http.HandlerFunc(h.RefreshToken))
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(Health))
	return router
}

// ExchangeCode trades {code} for {access_token, refresh_token, expires_in}
func (h *ExchangeHandler) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.WithFields(log.Fields{
		"component":  "exchange_handler",
		"operation":  "exchange_code",
		"request_id": RequestIDFrom(r.Context()),
	})

	var req api.CodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WithError(err).Warn("Invalid request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	tokens, err := h.exchanger.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		logger.WithError(err).Error("Error requesting token from Spotify")
		writeError(w, http.StatusInternalServerError, "Error requesting token from Spotify")
		return
	}

	writeJSON(w, http.StatusOK, types.TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

// RefreshToken trades {refresh_token} for {access_token, expires_in}. The
// refresh token is never rotated.
func (h *ExchangeHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.WithFields(log.Fields{
		"component":  "exchange_handler",
		"operation":  "refresh_token",
		"request_id": RequestIDFrom(r.Context()),
	})

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WithError(err).Warn("Invalid request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Missing refresh_token")
		return
	}

	tokens, err := h.exchanger.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		logger.WithError(err).Error("Error refreshing token from Spotify")
		writeError(w, http.StatusInternalServerError, "Error refreshing token from Spotify")
		return
	}

	writeJSON(w, http.StatusOK, types.TokenResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   tokens.ExpiresIn,
	})
}

// Health reports liveness
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}
