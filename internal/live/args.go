package live

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/enthub-api/internal/domain"
)

// Args is the named-argument bag passed to a backend function.
type Args map[string]any

// Ready reports whether a is present and every value in it is non-nil.
// A query whose args are not ready is not subscribed.
func (a Args) Ready() bool {
	if a == nil {
		return false
	}
	for _, v := range a {
		if isNil(v) {
			return false
		}
	}
	return true
}

func (a Args) clone() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// String returns the string argument key.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok || isNil(v) {
		return "", domain.NewValidationError(key, "is required")
	}
	if p, ok := v.(*string); ok {
		return *p, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.NewValidationError(key, "must be a string")
	}
	return s, nil
}

// OptionalString returns nil when key is absent or null.
func (a Args) OptionalString(key string) (*string, error) {
	if v, ok := a[key]; !ok || isNil(v) {
		return nil, nil
	}
	s, err := a.String(key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Float returns the numeric argument key. JSON numbers, Go numeric types and
// numeric strings are accepted.
func (a Args) Float(key string) (float64, error) {
	v, ok := a[key]
	if !ok || isNil(v) {
		return 0, domain.NewValidationError(key, "is required")
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, domain.NewValidationError(key, "must be a number")
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, domain.NewValidationError(key, "must be a number")
		}
		return f, nil
	}
	return 0, domain.NewValidationError(key, "must be a number")
}

// Int returns the integral argument key.
func (a Args) Int(key string) (int64, error) {
	f, err := a.Float(key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, domain.NewValidationError(key, "must be an integer")
	}
	return int64(f), nil
}

// Bind decodes the whole bag into out using its JSON tags.
func (a Args) Bind(out any) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewValidationError("", "malformed arguments")
	}
	return nil
}

// Decode converts a value delivered by a Subscriber or Caller into out. Values
// from the HTTP client arrive as json.RawMessage; in-process values are
// re-encoded.
func Decode(v any, out any) error {
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, out)
}
