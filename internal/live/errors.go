package live

import (
	"errors"

	"github.com/enthub-api/internal/domain"
)

var (
	ErrMissingQuery    = errors.New("query reference is required")
	ErrMissingMutation = errors.New("mutation reference is required")
	ErrSubscription    = errors.New("subscription failed")
	ErrMutation        = errors.New("mutation failed")
	ErrUnknownFunction = errors.New("unknown function")
)

// Error kinds carried in a Result.
const (
	KindValidation      = "ValidationError"
	KindNotFound        = "NotFoundError"
	KindExpired         = "ExpiredError"
	KindLocked          = "LockedError"
	KindInvalidCode     = "InvalidCodeError"
	KindDelivery        = "DeliveryError"
	KindRateLimited     = "RateLimitedError"
	KindUnauthorized    = "UnauthorizedError"
	KindForbidden       = "ForbiddenError"
	KindConflict        = "ConflictError"
	KindUnknownFunction = "UnknownFunctionError"
	KindInternal        = "InternalError"
)

// RemoteError is a failure reported by the backend through a Result.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Kind
	}
	return e.Message
}

// Is lets callers test a RemoteError against the domain sentinels.
func (e *RemoteError) Is(target error) bool {
	switch e.Kind {
	case KindValidation:
		return target == domain.ErrBadRequest
	case KindNotFound:
		return target == domain.ErrNotFound
	case KindExpired:
		return target == domain.ErrCodeExpired
	case KindLocked:
		return target == domain.ErrTooManyAttempts
	case KindInvalidCode, KindUnauthorized:
		return target == domain.ErrUnauthorized
	case KindDelivery:
		return target == domain.ErrDelivery
	case KindRateLimited:
		return target == domain.ErrRateLimited
	case KindForbidden:
		return target == domain.ErrForbidden
	case KindConflict:
		return target == domain.ErrConflict
	case KindUnknownFunction:
		return target == ErrUnknownFunction
	}
	return false
}

// KindOf classifies err for the wire. Unclassified errors are KindInternal.
func KindOf(err error) string {
	var ve *domain.ValidationError
	var ice *domain.InvalidCodeError
	var re *RemoteError
	switch {
	case errors.As(err, &re):
		return re.Kind
	case errors.As(err, &ve), errors.Is(err, domain.ErrBadRequest):
		return KindValidation
	case errors.As(err, &ice):
		return KindInvalidCode
	case errors.Is(err, domain.ErrNotFound):
		return KindNotFound
	case errors.Is(err, domain.ErrCodeExpired):
		return KindExpired
	case errors.Is(err, domain.ErrTooManyAttempts):
		return KindLocked
	case errors.Is(err, domain.ErrDelivery):
		return KindDelivery
	case errors.Is(err, domain.ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, domain.ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return KindForbidden
	case errors.Is(err, domain.ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnknownFunction):
		return KindUnknownFunction
	}
	return KindInternal
}
