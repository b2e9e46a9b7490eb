package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/enthub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockListSvc struct{ mock.Mock }

func (m *mockListSvc) GetStatus(ctx context.Context, userID string, tmdbID int64) (domain.ListStatus, error) {
	args := m.Called(ctx, userID, tmdbID)
	st, _ := args.Get(0).(domain.ListStatus)
	return st, args.Error(1)
}

func (m *mockListSvc) ToggleWatchlist(ctx context.Context, userID string, in domain.MediaInput) (bool, error) {
	args := m.Called(ctx, userID, in)
	return args.Bool(0), args.Error(1)
}

func (m *mockListSvc) MarkWatched(ctx context.Context, userID string, in domain.MediaInput) error {
	return m.Called(ctx, userID, in).Error(0)
}

func (m *mockListSvc) RemoveWatched(ctx context.Context, userID string, tmdbID int64) error {
	return m.Called(ctx, userID, tmdbID).Error(0)
}

func (m *mockListSvc) SetRating(ctx context.Context, userID string, tmdbID int64, rating float64) error {
	return m.Called(ctx, userID, tmdbID, rating).Error(0)
}

func (m *mockListSvc) GetWatchlist(ctx context.Context, userID string) ([]domain.ListEntry, error) {
	args := m.Called(ctx, userID)
	entries, _ := args.Get(0).([]domain.ListEntry)
	return entries, args.Error(1)
}

func (m *mockListSvc) GetWatched(ctx context.Context, userID string) ([]domain.ListEntry, error) {
	args := m.Called(ctx, userID)
	entries, _ := args.Get(0).([]domain.ListEntry)
	return entries, args.Error(1)
}

func watchlistFixture() []domain.ListEntry {
	return []domain.ListEntry{
		{TmdbID: 1, MediaType: "movie", Title: "Action Movie", AddedAt: 1000, Genres: []string{"Action"}, OriginalLanguage: "en", Status: "Released"},
		{TmdbID: 2, MediaType: "tv", Title: "Drama Series", AddedAt: 2000, Genres: []string{"Drama"}, OriginalLanguage: "en", Status: "Ended"},
		{TmdbID: 3, MediaType: "movie", Title: "Comedy Film", AddedAt: 3000, Genres: []string{"Comedy"}, OriginalLanguage: "fr", Status: "Released"},
	}
}

func TestListsList_Unauthenticated(t *testing.T) {
	h := NewListHandler(&mockListSvc{})
	rr := httptest.NewRecorder()
	h.List(domain.ListWatchlist)(rr, httptest.NewRequest(http.MethodGet, "/v1/lists/watchlist", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListsList_FiltersAndFacets(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockListSvc{}
	svc.On("GetWatchlist", mock.Anything, "u1").Return(watchlistFixture(), nil)
	h := NewListHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/lists/watchlist?type=movie&sort=title-asc", "u1", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, h.List(domain.ListWatchlist), rr, r)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ListEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Total)
	assert.True(t, resp.Filtered)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Action Movie", resp.Data[0].Title)
	assert.Equal(t, "Comedy Film", resp.Data[1].Title)
	assert.Equal(t, []string{"Action", "Comedy", "Drama"}, resp.Genres)
	assert.Equal(t, []string{"en", "fr"}, resp.Languages)
	assert.Equal(t, []string{"Ended", "Released"}, resp.Statuses)
}

func TestListsList_WatchedUsesWatchedService(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockListSvc{}
	svc.On("GetWatched", mock.Anything, "u1").Return(nil, nil)
	h := NewListHandler(svc)

	rr := httptest.NewRecorder()
	serveAuthed(p, h.List(domain.ListWatched), rr, bearerReq(t, p, http.MethodGet, "/v1/lists/watched", "u1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ListEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Empty(t, resp.Data)
	assert.False(t, resp.Filtered)
	svc.AssertExpectations(t)
}

func TestListsStatus(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockListSvc{}
	svc.On("GetStatus", mock.Anything, "u1", int64(550)).Return(domain.ListStatus{InWatchlist: true}, nil)
	h := NewListHandler(svc)

	r := withChiParam(bearerReq(t, p, http.MethodGet, "/v1/lists/status/550", "u1", nil), "tmdbId", "550")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Status), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"inWatchlist":true,"inWatched":false}`, rr.Body.String())
}

func TestListsStatus_BadID(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewListHandler(&mockListSvc{})

	r := withChiParam(bearerReq(t, p, http.MethodGet, "/v1/lists/status/abc", "u1", nil), "tmdbId", "abc")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Status), rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListsToggle(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockListSvc{}
	svc.On("ToggleWatchlist", mock.Anything, "u1", domain.MediaInput{TmdbID: 550, MediaType: "movie", Title: "Fight Club"}).Return(true, nil)
	h := NewListHandler(svc)

	body := []byte(`{"tmdbId":550,"mediaType":"movie","title":"Fight Club"}`)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.ToggleWatchlist), rr, bearerReq(t, p, http.MethodPost, "/v1/lists/watchlist/toggle", "u1", body))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"added":true}`, rr.Body.String())
}

func TestListsToggle_InvalidMediaType(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockListSvc{}
	h := NewListHandler(svc)

	body := []byte(`{"tmdbId":550,"mediaType":"book","title":"Fight Club"}`)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.ToggleWatchlist), rr, bearerReq(t, p, http.MethodPost, "/v1/lists/watchlist/toggle", "u1", body))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "ToggleWatchlist", mock.Anything, mock.Anything, mock.Anything)
}

func TestListsMarkWatched(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockListSvc{}
	svc.On("MarkWatched", mock.Anything, "u1", mock.AnythingOfType("domain.MediaInput")).Return(nil)
	h := NewListHandler(svc)

	body := []byte(`{"tmdbId":1399,"mediaType":"tv","title":"Game of Thrones","genres":["Drama"]}`)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.MarkWatched), rr, bearerReq(t, p, http.MethodPost, "/v1/lists/watched", "u1", body))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestListsRemoveWatched_NotFound(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockListSvc{}
	svc.On("RemoveWatched", mock.Anything, "u1", int64(7)).Return(domain.ErrNotFound)
	h := NewListHandler(svc)

	r := withChiParam(bearerReq(t, p, http.MethodDelete, "/v1/lists/watched/7", "u1", nil), "tmdbId", "7")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.RemoveWatched), rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListsSetRating(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockListSvc{}
	svc.On("SetRating", mock.Anything, "u1", int64(7), 0.0).Return(nil)
	h := NewListHandler(svc)

	r := withChiParam(bearerReq(t, p, http.MethodPut, "/v1/lists/watched/7/rating", "u1", []byte(`{"rating":0}`)), "tmdbId", "7")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.SetRating), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestListsSetRating_OutOfRange(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockListSvc{}
	h := NewListHandler(svc)

	for _, body := range []string{`{"rating":11}`, `{}`} {
		r := withChiParam(bearerReq(t, p, http.MethodPut, "/v1/lists/watched/7/rating", "u1", []byte(body)), "tmdbId", "7")
		rr := httptest.NewRecorder()
		serveAuthed(p, http.HandlerFunc(h.SetRating), rr, r)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	svc.AssertNotCalled(t, "SetRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
