package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/enthub-api/internal/application/notification"
	"github.com/enthub-api/internal/domain"
	"github.com/enthub-api/internal/pkg/id"
	"github.com/enthub-api/internal/pkg/scheduler"
	"github.com/enthub-api/internal/pkg/validate"
)

// CodeStore persists pending login codes, one per email.
type CodeStore interface {
	Put(ctx context.Context, rec *domain.OtpRecord) error
	Get(ctx context.Context, email string) (*domain.OtpRecord, error)
	Delete(ctx context.Context, email string) error
	IncrementAttempts(ctx context.Context, email string) error
}

// UserStore is the subset of the users table the login flow touches.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

// Scheduler runs detached work after the calling operation has returned.
type Scheduler interface {
	RunAfter(delay time.Duration, name string, fn scheduler.Action)
}

// Limiter caps code requests per email. Allow reports whether one more is permitted.
type Limiter interface {
	Allow(ctx context.Context, email string) bool
}

// VerifyResult identifies the user a verified code belongs to.
type VerifyResult struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Created bool   `json:"created"`
}

type Service interface {
	IssueCode(ctx context.Context, rawEmail string) error
	VerifyCode(ctx context.Context, rawEmail, rawCode string) (*VerifyResult, error)
}

// ServiceDeps holds all dependencies for the auth service.
// Limiter, Now and GenerateCode are optional.
type ServiceDeps struct {
	Codes        CodeStore
	Users        UserStore
	Dispatcher   notification.Dispatcher
	Scheduler    Scheduler
	Limiter      Limiter
	Now          func() time.Time
	GenerateCode func() (string, error)
}

type service struct {
	codes      CodeStore
	users      UserStore
	dispatcher notification.Dispatcher
	scheduler  Scheduler
	limiter    Limiter
	now        func() time.Time
	genCode    func() (string, error)
}

func NewService(d ServiceDeps) Service {
	s := &service{
		codes:      d.Codes,
		users:      d.Users,
		dispatcher: d.Dispatcher,
		scheduler:  d.Scheduler,
		limiter:    d.Limiter,
		now:        d.Now,
		genCode:    d.GenerateCode,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.genCode == nil {
		s.genCode = GenerateCode
	}
	return s
}

// GenerateCode returns a uniformly random code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

func (s *service) IssueCode(ctx context.Context, rawEmail string) error {
	email, err := validate.Email(rawEmail)
	if err != nil {
		return err
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, email) {
		return domain.ErrRateLimited
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		return fmt.Errorf("clear previous code: %w", err)
	}
	code, err := s.genCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	rec := domain.NewOtpRecord(email, code, s.now().Add(domain.OtpTTL))
	if err := s.codes.Put(ctx, rec); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	s.scheduler.RunAfter(0, "auth.sendCode", func(ctx context.Context) error {
		res, err := s.dispatcher.SendCode(ctx, email, code)
		if err != nil {
			return err
		}
		slog.Info("login code dispatched", "to", email, "mocked", res.Mocked)
		return nil
	})
	return nil
}

func (s *service) VerifyCode(ctx context.Context, rawEmail, rawCode string) (*VerifyResult, error) {
	email, err := validate.Email(rawEmail)
	if err != nil {
		return nil, err
	}
	code, err := validate.Code(rawCode)
	if err != nil {
		return nil, err
	}

	rec, err := s.codes.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoLoginRequest
	}
	if err != nil {
		return nil, err
	}

	if rec.Expired(s.now()) {
		s.discard(ctx, email)
		return nil, domain.ErrCodeExpired
	}
	if rec.Locked() {
		s.discard(ctx, email)
		return nil, domain.ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		if err := s.codes.IncrementAttempts(ctx, email); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNoLoginRequest
			}
			return nil, err
		}
		return nil, &domain.InvalidCodeError{Remaining: rec.Remaining()}
	}

	// Single use: consume before provisioning the user.
	if err := s.codes.Delete(ctx, email); err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}
	return s.ensureUser(ctx, email)
}

func (s *service) ensureUser(ctx context.Context, email string) (*VerifyResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return &VerifyResult{UserID: u.UserID, Email: u.Email}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	u = &domain.User{
		UserID:    id.New(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.Info("user created", "user_id", u.UserID)
	return &VerifyResult{UserID: u.UserID, Email: u.Email, Created: true}, nil
}

func (s *service) discard(ctx context.Context, email string) {
	if err := s.codes.Delete(ctx, email); err != nil {
		slog.Warn("failed to delete login code", "email", email, "err", err)
	}
}
