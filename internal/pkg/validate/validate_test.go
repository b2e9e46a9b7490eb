package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/enthub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail_Normalizes(t *testing.T) {
	got, err := Email("  USER@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got)
}

func TestEmail_Rejects(t *testing.T) {
	long := strings.Repeat("a", 245) + "@example.com" // 257 chars
	cases := map[string]string{
		"empty":          "   ",
		"no at":          "not-an-email",
		"no dot":         "user@localhost",
		"whitespace":     "us er@example.com",
		"two ats":        "a@b@example.com",
		"too long":       long,
		"dot before at":  "first.last@domain",
		"missing domain": "user@.",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Email(in)
			require.Error(t, err)
			var ve *domain.ValidationError
			assert.True(t, errors.As(err, &ve))
			assert.True(t, errors.Is(err, domain.ErrBadRequest))
		})
	}
}

func TestEmail_255CharsRejected(t *testing.T) {
	in := strings.Repeat("x", 255-len("@example.com")) + "@example.com"
	require.Len(t, in, 255)
	_, err := Email(in)
	assert.ErrorContains(t, err, "too long")
}

func TestEmail_254CharsAccepted(t *testing.T) {
	in := strings.Repeat("x", 254-len("@example.com")) + "@example.com"
	got, err := Email(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestCode(t *testing.T) {
	got, err := Code(" 123456 ")
	require.NoError(t, err)
	assert.Equal(t, "123456", got)

	for _, in := range []string{"", "12a456", "12345", "1234567", "١٢٣٤٥٦"} {
		_, err := Code(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestStruct_ReportsFailedFields(t *testing.T) {
	in := domain.MediaInput{MediaType: "book"}
	err := Struct(&in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Contains(t, err.Error(), "MediaType")
	assert.Contains(t, err.Error(), "Title")
}
