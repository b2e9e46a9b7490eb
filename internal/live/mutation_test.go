package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCaller struct{ mock.Mock }

func (m *mockCaller) Call(ctx context.Context, name string, args Args) (any, error) {
	a := m.Called(ctx, name, args)
	return a.Get(0), a.Error(1)
}

func TestUseMutation_MissingReference(t *testing.T) {
	_, err := UseMutation(nil, "lists.toggleWatchlist")
	assert.ErrorIs(t, err, ErrMissingMutation)

	_, err = UseMutation(&mockCaller{}, "")
	assert.ErrorIs(t, err, ErrMissingMutation)
}

func TestMutate_InitialState(t *testing.T) {
	m, err := UseMutation(&mockCaller{}, "x")
	require.NoError(t, err)
	assert.False(t, m.Loading())
	assert.Nil(t, m.Err())
}

func TestMutate_PassesArgsAndReturnsResult(t *testing.T) {
	c := &mockCaller{}
	args := Args{"userId": "user-123", "tmdbId": 456}
	c.On("Call", mock.Anything, "lists.toggleWatchlist", args).Return(map[string]bool{"added": true}, nil)

	m, err := UseMutation(c, "lists.toggleWatchlist")
	require.NoError(t, err)

	v, err := m.Mutate(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"added": true}, v)
	assert.Nil(t, m.Err())
	assert.False(t, m.Loading())
	c.AssertExpectations(t)
}

func TestMutate_RecordsAndReturnsFailure(t *testing.T) {
	boom := errors.New("mutation failed")
	c := &mockCaller{}
	c.On("Call", mock.Anything, "x", mock.Anything).Return(nil, boom).Once()
	c.On("Call", mock.Anything, "x", mock.Anything).Return("ok", nil).Once()

	m, err := UseMutation(c, "x")
	require.NoError(t, err)

	_, err = m.Mutate(context.Background(), Args{})
	assert.Equal(t, boom, err)
	assert.Equal(t, boom, m.Err())
	assert.False(t, m.Loading())

	_, err = m.Mutate(context.Background(), Args{})
	require.NoError(t, err)
	assert.Nil(t, m.Err(), "error cleared by the next call")
}

func TestMutate_LoadingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	c := &mockCaller{}
	c.On("Call", mock.Anything, "slow", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return("done", nil)

	m, err := UseMutation(c, "slow")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Mutate(context.Background(), Args{})
	}()

	require.Eventually(t, m.Loading, time.Second, 2*time.Millisecond)
	close(release)
	<-done
	assert.False(t, m.Loading())
}

func TestMutate_PanicBecomesError(t *testing.T) {
	c := &mockCaller{}
	c.On("Call", mock.Anything, "x", mock.Anything).Run(func(mock.Arguments) { panic("bad") }).Return(nil, nil)

	m, err := UseMutation(c, "x")
	require.NoError(t, err)

	_, err = m.Mutate(context.Background(), Args{})
	assert.ErrorIs(t, err, ErrMutation)
	assert.ErrorIs(t, m.Err(), ErrMutation)
}
