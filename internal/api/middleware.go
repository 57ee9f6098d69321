package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"formcraft/internal/errs"

	"go.uber.org/zap"
)

// ErrorResponse is the error payload every endpoint speaks. Errors is only
// set for submission and form validation failures; LimitReached only when a
// plan quota was hit.
type ErrorResponse struct {
	Message      string            `json:"message"`
	Errors       []errs.FieldError `json:"errors,omitempty"`
	LimitReached bool              `json:"limitReached,omitempty"`
}

func WriteJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// WriteError writes a standardized error response.
func WriteError(w http.ResponseWriter, code int, message string, log *zap.Logger) {
	log.Warn("API error", zap.Int("status", code), zap.String("message", message))
	WriteJSON(w, code, ErrorResponse{Message: message})
}

// WriteServiceError maps a service error to the right status. Internal detail
// never reaches the client on a 500.
func WriteServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	var verr *errs.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Errors:  verr.Errors,
		})
	case errors.Is(err, errs.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Not found", log)
	case errors.Is(err, errs.ErrExpired):
		WriteError(w, http.StatusForbidden, "This form has expired", log)
	case errors.Is(err, errs.ErrQuotaExceeded):
		WriteJSON(w, http.StatusForbidden, ErrorResponse{
			Message:      err.Error(),
			LimitReached: true,
		})
	case errors.Is(err, errs.ErrConflict):
		WriteError(w, http.StatusConflict, err.Error(), log)
	case errors.Is(err, errs.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "Invalid email or password", log)
	case errors.Is(err, errs.ErrNotVerified):
		WriteError(w, http.StatusForbidden, "Please verify your email before logging in", log)
	default:
		log.Error("internal error", zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "Server error"})
	}
}

// RequestLogger logs HTTP requests and responses
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// WebSocket upgrades need the raw ResponseWriter.
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			log.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
