package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 30 * time.Millisecond

type fakeHandle struct {
	args     Args
	onUpdate func(any)
	onError  func(error)
	closed   atomic.Bool
}

type fakeSubscriber struct {
	mu        sync.Mutex
	handles   []*fakeHandle
	err       error
	panicWith any
	overlap   bool
}

func (f *fakeSubscriber) Subscribe(_ context.Context, _ string, args Args, onUpdate func(any), onError func(error)) (Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return nil, f.err
	}
	for _, h := range f.handles {
		if !h.closed.Load() {
			f.overlap = true
		}
	}
	h := &fakeHandle{args: args, onUpdate: onUpdate, onError: onError}
	f.handles = append(f.handles, h)
	return func() { h.closed.Store(true) }, nil
}

func (f *fakeSubscriber) calls() []*fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeHandle(nil), f.handles...)
}

func (f *fakeSubscriber) sawOverlap() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlap
}

func waitForCalls(t *testing.T, f *fakeSubscriber, n int) []*fakeHandle {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.calls()) == n }, time.Second, 2*time.Millisecond)
	return f.calls()
}

func TestUseQuery_MissingReference(t *testing.T) {
	_, err := UseQuery(nil, "lists.getWatchlist", Args{})
	assert.ErrorIs(t, err, ErrMissingQuery)

	_, err = UseQuery(&fakeSubscriber{}, "", Args{})
	assert.ErrorIs(t, err, ErrMissingQuery)
}

func TestUseQuery_InitialState(t *testing.T) {
	q, err := UseQuery(&fakeSubscriber{}, "q", Args{"userId": "u1"})
	require.NoError(t, err)
	defer q.Close()

	st := q.State()
	assert.Nil(t, st.Data)
	assert.Nil(t, st.Err)
	assert.True(t, st.Loading)
}

func TestUseQuery_WaitsForDebounce(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"})
	require.NoError(t, err)
	defer q.Close()

	time.Sleep(DefaultDebounce / 2)
	assert.Empty(t, sub.calls(), "no subscription before the window elapses")

	handles := waitForCalls(t, sub, 1)
	assert.Equal(t, Args{"userId": "u1"}, handles[0].args)
}

func TestUseQuery_RapidChangesCollapse(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": "a"}, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	q.SetArgs(Args{"userId": "b"})
	q.SetArgs(Args{"userId": "c"})
	q.SetArgs(Args{"userId": "d"})

	handles := waitForCalls(t, sub, 1)
	time.Sleep(3 * testDebounce)
	assert.Len(t, sub.calls(), 1)
	assert.Equal(t, Args{"userId": "d"}, handles[0].args)
}

func TestUseQuery_NullArgsGate(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": nil}, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	require.Eventually(t, func() bool { return !q.Loading() }, time.Second, 2*time.Millisecond)
	time.Sleep(2 * testDebounce)
	assert.Empty(t, sub.calls())
	assert.Nil(t, q.Data())
	assert.Nil(t, q.Err())
}

func TestUseQuery_NilArgsGate(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", nil, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	require.Eventually(t, func() bool { return !q.Loading() }, time.Second, 2*time.Millisecond)
	assert.Empty(t, sub.calls())
}

func TestUseQuery_UpdatesAndErrors(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"}, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	h := waitForCalls(t, sub, 1)[0]
	assert.True(t, q.Loading())

	h.onUpdate([]string{"a"})
	st := q.State()
	assert.Equal(t, []string{"a"}, st.Data)
	assert.False(t, st.Loading)

	boom := errors.New("query failed")
	h.onError(boom)
	st = q.State()
	assert.Equal(t, boom, st.Err)
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"a"}, st.Data, "data survives an error")
}

func TestUseQuery_ErrorSurvivesUpdatesAndResubscribe(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"}, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	first := waitForCalls(t, sub, 1)[0]
	boom := errors.New("query failed")
	first.onError(boom)
	first.onUpdate("recovered")
	assert.Equal(t, boom, q.Err())
	assert.Equal(t, "recovered", q.Data())

	q.SetArgs(Args{"userId": "u2"})
	handles := waitForCalls(t, sub, 2)
	handles[1].onUpdate("from-u2")
	assert.Equal(t, boom, q.Err())

	q.SetArgs(Args{"userId": nil})
	require.Eventually(t, func() bool { return handles[1].closed.Load() }, time.Second, 2*time.Millisecond)
	assert.Equal(t, boom, q.Err())
}

func TestUseQuery_NewArgsReplaceSubscription(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"}, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	first := waitForCalls(t, sub, 1)[0]
	first.onUpdate("from-u1")

	q.SetArgs(Args{"userId": "u2"})
	handles := waitForCalls(t, sub, 2)
	assert.True(t, first.closed.Load())
	assert.False(t, sub.sawOverlap(), "previous subscription torn down first")

	first.onUpdate("stale")
	assert.Equal(t, "from-u1", q.Data(), "callbacks from a replaced subscription are dropped")

	handles[1].onUpdate("from-u2")
	assert.Equal(t, "from-u2", q.Data())
}

func TestUseQuery_GateTearsDownLiveSubscription(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"}, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	h := waitForCalls(t, sub, 1)[0]
	h.onUpdate("data")

	q.SetArgs(Args{"userId": nil})
	require.Eventually(t, func() bool { return h.closed.Load() }, time.Second, 2*time.Millisecond)
	assert.Nil(t, q.Data())
	assert.False(t, q.Loading())
}

func TestUseQuery_SubscribeFailureGoesToErrorCell(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("connection refused")}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"}, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	require.Eventually(t, func() bool { return q.Err() != nil }, time.Second, 2*time.Millisecond)
	assert.ErrorIs(t, q.Err(), ErrSubscription)
	assert.False(t, q.Loading())
}

func TestUseQuery_SubscribePanicGoesToErrorCell(t *testing.T) {
	sub := &fakeSubscriber{panicWith: "kaboom"}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"}, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	require.Eventually(t, func() bool { return q.Err() != nil }, time.Second, 2*time.Millisecond)
	assert.ErrorIs(t, q.Err(), ErrSubscription)
}

func TestUseQuery_CloseTearsDown(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"}, WithDebounce(testDebounce))
	require.NoError(t, err)

	h := waitForCalls(t, sub, 1)[0]
	q.Close()
	q.Close()
	assert.True(t, h.closed.Load())

	q.SetArgs(Args{"userId": "u2"})
	time.Sleep(3 * testDebounce)
	assert.Len(t, sub.calls(), 1)

	for range q.Updates() {
	}
}

func TestUseQuery_CloseBeforeFirstSubscription(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"}, WithDebounce(testDebounce))
	require.NoError(t, err)
	q.Close()

	time.Sleep(3 * testDebounce)
	assert.Empty(t, sub.calls())
}

func TestUseQuery_UpdatesChannel(t *testing.T) {
	sub := &fakeSubscriber{}
	q, err := UseQuery(sub, "q", Args{"userId": "u1"}, WithDebounce(testDebounce))
	require.NoError(t, err)
	defer q.Close()

	h := waitForCalls(t, sub, 1)[0]
	h.onUpdate(42)

	deadline := time.After(time.Second)
	for {
		select {
		case st := <-q.Updates():
			if st.Data == 42 {
				assert.False(t, st.Loading)
				return
			}
		case <-deadline:
			t.Fatal("no update with data")
		}
	}
}
