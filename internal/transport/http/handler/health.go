package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// LiveStats reports the function registry's contents and load.
type LiveStats interface {
	Functions() (queries, mutations []string)
	Subscriptions() int
}

// HealthEnvelope is the body of the live health check.
type HealthEnvelope struct {
	Queries       []string `json:"queries"`
	Mutations     []string `json:"mutations"`
	Subscriptions int      `json:"subscriptions"`
}

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	stats LiveStats
}

func NewHealthHandler(stats LiveStats) *HealthHandler { return &HealthHandler{stats: stats} }

// Ping answers "ping" with pong and "live" with the registry summary.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "live":
		if h.stats == nil {
			writeError(w, http.StatusServiceUnavailable, "live registry unavailable")
			return
		}
		q, m := h.stats.Functions()
		writeJSON(w, http.StatusOK, HealthEnvelope{Queries: q, Mutations: m, Subscriptions: h.stats.Subscriptions()})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
