package live

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFail_NilIsInternal(t *testing.T) {
	var res Result
	require.NotPanics(t, func() { res = Fail(nil) })
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, KindInternal, res.ErrorKind)

	_, err := res.Unwrap()
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, KindInternal, remote.Kind)
}

func TestFail_HidesInternalMessage(t *testing.T) {
	res := Fail(errors.New("dynamo: connection refused"))
	assert.Equal(t, KindInternal, res.ErrorKind)
	assert.Equal(t, "internal error", res.ErrorMessage)
}
