package lists

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/pkg/id"
	"github.com/enthub-api/internal/pkg/validate"
)

// Store is one per-user list table.
type Store interface {
	Get(ctx context.Context, userID string, tmdbID int64) (*domain.ListEntry, error)
	Put(ctx context.Context, e *domain.ListEntry) error
	Delete(ctx context.Context, userID string, tmdbID int64) error
	ListByUser(ctx context.Context, userID string) ([]domain.ListEntry, error)
}

// WatchedStore additionally supports rating an entry in place.
type WatchedStore interface {
	Store
	SetRating(ctx context.Context, userID string, tmdbID int64, rating float64) error
}

// Invalidator re-runs live queries subscribed under scope.
type Invalidator interface {
	Invalidate(scope string)
}

type Service interface {
	GetStatus(ctx context.Context, userID string, tmdbID int64) (domain.ListStatus, error)
	ToggleWatchlist(ctx context.Context, userID string, in domain.MediaInput) (added bool, err error)
	MarkWatched(ctx context.Context, userID string, in domain.MediaInput) error
	RemoveWatched(ctx context.Context, userID string, tmdbID int64) error
	SetRating(ctx context.Context, userID string, tmdbID int64, rating float64) error
	GetWatchlist(ctx context.Context, userID string) ([]domain.ListEntry, error)
	GetWatched(ctx context.Context, userID string) ([]domain.ListEntry, error)
}

// ServiceDeps holds all dependencies for the lists service. Invalidator and Now are optional.
type ServiceDeps struct {
	Watchlist   Store
	Watched     WatchedStore
	Invalidator Invalidator
	Now         func() time.Time
}

type service struct {
	watchlist   Store
	watched     WatchedStore
	invalidator Invalidator
	now         func() time.Time
}

func NewService(d ServiceDeps) Service {
	s := &service{
		watchlist:   d.Watchlist,
		watched:     d.Watched,
		invalidator: d.Invalidator,
		now:         d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) GetStatus(ctx context.Context, userID string, tmdbID int64) (domain.ListStatus, error) {
	if err := checkKey(userID, tmdbID); err != nil {
		return domain.ListStatus{}, err
	}
	inWatchlist, err := exists(ctx, s.watchlist, userID, tmdbID)
	if err != nil {
		return domain.ListStatus{}, err
	}
	inWatched, err := exists(ctx, s.watched, userID, tmdbID)
	if err != nil {
		return domain.ListStatus{}, err
	}
	return domain.ListStatus{InWatchlist: inWatchlist, InWatched: inWatched}, nil
}

// ToggleWatchlist removes the item from the watchlist if present. Otherwise it
// moves the item off the watched list and onto the watchlist.
func (s *service) ToggleWatchlist(ctx context.Context, userID string, in domain.MediaInput) (bool, error) {
	if err := checkInput(userID, in); err != nil {
		return false, err
	}
	present, err := exists(ctx, s.watchlist, userID, in.TmdbID)
	if err != nil {
		return false, err
	}
	defer s.invalidate(userID)

	if present {
		if err := s.watchlist.Delete(ctx, userID, in.TmdbID); err != nil {
			return false, fmt.Errorf("remove from watchlist: %w", err)
		}
		return false, nil
	}

	if err := s.watched.Delete(ctx, userID, in.TmdbID); err != nil {
		return false, fmt.Errorf("remove from watched: %w", err)
	}
	now := s.now()
	entry := in.Entry(id.At(now), userID)
	entry.AddedAt = now.UnixMilli()
	if err := s.watchlist.Put(ctx, &entry); err != nil {
		return false, fmt.Errorf("add to watchlist: %w", err)
	}
	return true, nil
}

// MarkWatched moves the item off the watchlist and records it as watched. An
// item already on the watched list keeps its original entry.
func (s *service) MarkWatched(ctx context.Context, userID string, in domain.MediaInput) error {
	if err := checkInput(userID, in); err != nil {
		return err
	}
	defer s.invalidate(userID)

	if err := s.watchlist.Delete(ctx, userID, in.TmdbID); err != nil {
		return fmt.Errorf("remove from watchlist: %w", err)
	}
	present, err := exists(ctx, s.watched, userID, in.TmdbID)
	if err != nil || present {
		return err
	}
	now := s.now()
	entry := in.Entry(id.At(now), userID)
	entry.WatchedAt = now.UnixMilli()
	if err := s.watched.Put(ctx, &entry); err != nil {
		return fmt.Errorf("add to watched: %w", err)
	}
	return nil
}

// RemoveWatched deletes the watched entry. Removing an absent item is a no-op.
func (s *service) RemoveWatched(ctx context.Context, userID string, tmdbID int64) error {
	if err := checkKey(userID, tmdbID); err != nil {
		return err
	}
	if err := s.watched.Delete(ctx, userID, tmdbID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *service) SetRating(ctx context.Context, userID string, tmdbID int64, rating float64) error {
	if err := checkKey(userID, tmdbID); err != nil {
		return err
	}
	if rating < 0 || rating > 10 {
		return domain.NewValidationError("rating", "must be between 0 and 10")
	}
	if err := s.watched.SetRating(ctx, userID, tmdbID, rating); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// GetWatchlist returns the watchlist, most recently added first.
func (s *service) GetWatchlist(ctx context.Context, userID string) ([]domain.ListEntry, error) {
	return s.list(ctx, s.watchlist, userID, func(e domain.ListEntry) int64 { return e.AddedAt })
}

// GetWatched returns the watched list, most recently watched first.
func (s *service) GetWatched(ctx context.Context, userID string) ([]domain.ListEntry, error) {
	return s.list(ctx, s.watched, userID, func(e domain.ListEntry) int64 { return e.WatchedAt })
}

func (s *service) list(ctx context.Context, store Store, userID string, ts func(domain.ListEntry) int64) ([]domain.ListEntry, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "is required")
	}
	entries, err := store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.ListEntry{}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if a, b := ts(entries[i]), ts(entries[j]); a != b {
			return a > b
		}
		return entries[i].EntryID > entries[j].EntryID
	})
	return entries, nil
}

func (s *service) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}

func exists(ctx context.Context, store Store, userID string, tmdbID int64) (bool, error) {
	_, err := store.Get(ctx, userID, tmdbID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func checkKey(userID string, tmdbID int64) error {
	if userID == "" {
		return domain.NewValidationError("userId", "is required")
	}
	if tmdbID <= 0 {
		return domain.NewValidationError("tmdbId", "must be positive")
	}
	return nil
}

func checkInput(userID string, in domain.MediaInput) error {
	if userID == "" {
		return domain.NewValidationError("userId", "is required")
	}
	return validate.Struct(in)
}
