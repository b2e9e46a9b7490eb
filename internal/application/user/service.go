package user

import (
	"context"

	"github.com/enthub-api/internal/domain"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100
)

type Service interface {
	List(ctx context.Context, limit int) ([]domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type userStore interface {
	List(ctx context.Context, limit int32) ([]domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	repo userStore
}

func NewService(repo userStore) Service {
	return &service{repo: repo}
}

// List returns up to limit users. A non-positive limit selects the default
// and anything above the cap is clamped to it.
func (s *service) List(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, int32(limit))
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "is required")
	}
	return s.repo.Get(ctx, userID)
}
