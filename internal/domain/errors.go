package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Login flow errors. Messages are safe to show to the end user.
var (
	ErrNoLoginRequest  = fmt.Errorf("no login request found for this email, please request a new code: %w", ErrNotFound)
	ErrCodeExpired     = errors.New("code expired, please request a new one")
	ErrTooManyAttempts = errors.New("too many failed attempts, please request a new code")
	ErrDelivery        = errors.New("failed to send email")
	ErrRateLimited     = errors.New("too many requests, please wait before trying again")
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrBadRequest }

// NewValidationError builds a *ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidCodeError is returned for a wrong login code. Remaining is the number
// of further wrong attempts tolerated before the code is locked.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code, %d attempts remaining", e.Remaining)
}

func (e *InvalidCodeError) Is(target error) bool { return target == ErrUnauthorized }
