package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/enthub-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

const maxEmailLength = 254

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

// Struct validates the given struct using its validate tags.
// Returns a *domain.ValidationError or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return domain.NewValidationError("", strings.Join(msgs, "; "))
	}
	return nil
}

// Email trims and lowercases raw and checks it is a plausible local@domain.tld
// address of at most 254 characters.
func Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.NewValidationError("email", "email is required")
	}
	if err := v.Var(email, fmt.Sprintf("max=%d", maxEmailLength)); err != nil {
		return "", domain.NewValidationError("email", "email is too long")
	}
	if !emailPattern.MatchString(email) {
		return "", domain.NewValidationError("email", "invalid email format")
	}
	return email, nil
}

// Code trims raw and checks it is exactly six ASCII digits.
func Code(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", domain.NewValidationError("code", "code is required")
	}
	if !codePattern.MatchString(code) {
		return "", domain.NewValidationError("code", "code must be 6 digits")
	}
	return code, nil
}
