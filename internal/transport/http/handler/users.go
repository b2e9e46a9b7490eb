package handler

import (
	"net/http"
	"strconv"

	"github.com/enthub-api/internal/application/user"
	"github.com/enthub-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// UserHandler handles user lookup endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

// List returns up to limit users (default and maximum 100).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := h.svc.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, UsersEnvelope{Data: users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
