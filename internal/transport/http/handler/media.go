package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/enthub-api/internal/infrastructure/tmdb"
	"github.com/go-chi/chi/v5"
)

// MediaSource is the read-only media database.
type MediaSource interface {
	Trending(ctx context.Context, window string) (*tmdb.Page[tmdb.MediaItem], error)
	Search(ctx context.Context, query string, page int) (*tmdb.Page[tmdb.MediaItem], error)
	Details(ctx context.Context, mediaType string, id int64) (*tmdb.MediaDetails, error)
	Collection(ctx context.Context, id int64) (*tmdb.Collection, error)
	Person(ctx context.Context, id int64) (*tmdb.Person, error)
	Season(ctx context.Context, seriesID int64, number int) (*tmdb.Season, error)
}

// MediaHandler proxies media lookups. Adult titles are dropped from listings
// unless include_adult=true.
type MediaHandler struct {
	src MediaSource
}

func NewMediaHandler(src MediaSource) *MediaHandler { return &MediaHandler{src: src} }

func (h *MediaHandler) Trending(w http.ResponseWriter, r *http.Request) {
	page, err := h.src.Trending(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filterPage(r, page))
}

func (h *MediaHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageNum, _ := strconv.Atoi(q.Get("page"))
	page, err := h.src.Search(r.Context(), q.Get("q"), pageNum)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filterPage(r, page))
}

func (h *MediaHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	d, err := h.src.Details(r.Context(), chi.URLParam(r, "type"), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *MediaHandler) Collection(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	c, err := h.src.Collection(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *MediaHandler) Person(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	p, err := h.src.Person(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *MediaHandler) Season(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid season number")
		return
	}
	s, err := h.src.Season(r.Context(), id, n)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func filterPage(r *http.Request, page *tmdb.Page[tmdb.MediaItem]) *tmdb.Page[tmdb.MediaItem] {
	if r.URL.Query().Get("include_adult") == "true" {
		return page
	}
	out := *page
	out.Results = tmdb.FilterAdult(page.Results)
	return &out
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
