package handler

import (
	"net/http"
	"strconv"

	"github.com/enthub-api/internal/application/lists"
	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/listfilter"
	"github.com/enthub-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// ListHandler serves the authenticated user's watchlist and watched list.
type ListHandler struct {
	svc lists.Service
}

func NewListHandler(svc lists.Service) *ListHandler { return &ListHandler{svc: svc} }

type ratingRequest struct {
	Rating *float64 `json:"rating" validate:"required,gte=0,lte=10"`
}

// List returns a handler for one list, filtered and sorted by the sort, type,
// genre, language and status query parameters. Facets are computed over the
// whole list.
func (h *ListHandler) List(kind domain.ListKind) http.HandlerFunc {
	field := listfilter.AddedAt
	if kind == domain.ListWatched {
		field = listfilter.WatchedAt
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		get := h.svc.GetWatchlist
		if kind == domain.ListWatched {
			get = h.svc.GetWatched
		}
		entries, err := get(r.Context(), userID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		engine := listfilter.FromQuery(field, r.URL.Query())
		writeJSON(w, http.StatusOK, ListEnvelope{
			Data:      engine.FilteredAndSorted(entries),
			Total:     len(entries),
			Genres:    engine.AvailableGenres(entries),
			Languages: engine.AvailableLanguages(entries),
			Statuses:  engine.AvailableStatuses(entries),
			Filtered:  engine.HasActiveFilters(),
		})
	}
}

func (h *ListHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tmdbID, ok := tmdbIDParam(w, r)
	if !ok {
		return
	}
	st, err := h.svc.GetStatus(r.Context(), userID, tmdbID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *ListHandler) ToggleWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in domain.MediaInput
	if err := decodeBody(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	added, err := h.svc.ToggleWatchlist(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"added": added})
}

func (h *ListHandler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in domain.MediaInput
	if err := decodeBody(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.MarkWatched(r.Context(), userID, in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "marked as watched"})
}

func (h *ListHandler) RemoveWatched(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tmdbID, ok := tmdbIDParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveWatched(r.Context(), userID, tmdbID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "removed from watched"})
}

func (h *ListHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tmdbID, ok := tmdbIDParam(w, r)
	if !ok {
		return
	}
	var req ratingRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.SetRating(r.Context(), userID, tmdbID, *req.Rating); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "rating saved"})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

func tmdbIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tmdbId"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid tmdb id")
		return 0, false
	}
	return id, true
}
