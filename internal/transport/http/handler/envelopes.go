package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/infrastructure/tmdb"
	"github.com/enthub-api/internal/live"
	"github.com/enthub-api/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

// ListEnvelope wraps a filtered list together with the facets of the full list.
type ListEnvelope struct {
	Data      []domain.ListEntry `json:"data"`
	Total     int                `json:"total"`
	Genres    []string           `json:"genres"`
	Languages []string           `json:"languages"`
	Statuses  []string           `json:"statuses"`
	Filtered  bool               `json:"filtered"`
}

// UsersEnvelope wraps user list responses.
type UsersEnvelope struct {
	Data []domain.User `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// decodeBody reads a JSON body into v and runs its validate tags.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("", "invalid request body")
	}
	return validate.Struct(v)
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	var apiErr *tmdb.APIError
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, live.ErrUnknownFunction):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCodeExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusLocked
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrDelivery), errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with the status statusFor picks. Internal
// failures are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	env := MessageEnvelope{Error: err.Error(), ErrorKind: live.KindOf(err)}
	var ice *domain.InvalidCodeError
	if errors.As(err, &ice) {
		remaining := ice.Remaining
		env.Remaining = &remaining
	}
	var apiErr *tmdb.APIError
	switch {
	case status == http.StatusInternalServerError:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		env.Error = "internal server error"
	case errors.As(err, &apiErr):
		slog.Warn("media provider error", "path", r.URL.Path, "status", apiErr.StatusCode, "error", err)
		env.Error = "media provider unavailable"
	}
	writeJSON(w, status, env)
}
