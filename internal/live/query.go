package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultDebounce is how long argument changes must settle before a query
// re-subscribes.
const DefaultDebounce = 100 * time.Millisecond

// State is a snapshot of a live query's observable cells.
type State struct {
	Data    any
	Err     error
	Loading bool
}

type Option func(*queryOptions)

type queryOptions struct {
	debounce time.Duration
	ctx      context.Context
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(o *queryOptions) { o.debounce = d }
}

// WithContext sets the parent context of every subscription the query opens.
func WithContext(ctx context.Context) Option {
	return func(o *queryOptions) { o.ctx = ctx }
}

// Query keeps at most one live subscription to a named query open for the
// most recent argument bag.
type Query struct {
	sub      Subscriber
	name     string
	debounce time.Duration
	baseCtx  context.Context

	// openMu serializes subscription changes so a slow Subscribe cannot
	// overlap the next one.
	openMu sync.Mutex

	mu       sync.Mutex
	state    State
	pending  Args
	timer    *time.Timer
	timerGen uint64
	subGen   uint64
	unsub    Unsubscribe
	cancel   context.CancelFunc
	closed   bool
	updates  chan State
}

// UseQuery starts a live query. The first subscription is opened once the
// debounce window after creation has elapsed.
func UseQuery(sub Subscriber, name string, args Args, opts ...Option) (*Query, error) {
	if sub == nil || name == "" {
		return nil, ErrMissingQuery
	}
	o := queryOptions{debounce: DefaultDebounce, ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	q := &Query{
		sub:      sub,
		name:     name,
		debounce: o.debounce,
		baseCtx:  o.ctx,
		state:    State{Loading: true},
		updates:  make(chan State, 1),
	}
	q.SetArgs(args)
	return q, nil
}

// SetArgs replaces the argument bag and restarts the debounce window. Only the
// bag present when the window elapses is ever subscribed.
func (q *Query) SetArgs(args Args) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = args.clone()
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timerGen++
	gen := q.timerGen
	q.timer = time.AfterFunc(q.debounce, func() { q.fire(gen) })
}

func (q *Query) fire(timerGen uint64) {
	q.openMu.Lock()
	defer q.openMu.Unlock()

	q.mu.Lock()
	if q.closed || timerGen != q.timerGen {
		q.mu.Unlock()
		return
	}
	args := q.pending
	prevUnsub, prevCancel := q.detachLocked()

	if !args.Ready() {
		q.state.Data = nil
		q.state.Loading = false
		q.publishLocked()
		q.mu.Unlock()
		release(prevUnsub, prevCancel)
		return
	}

	q.state.Loading = true
	q.publishLocked()
	gen := q.subGen
	q.mu.Unlock()

	release(prevUnsub, prevCancel)

	ctx, cancel := context.WithCancel(q.baseCtx)
	unsub, err := q.open(ctx, gen, args)

	q.mu.Lock()
	if err != nil {
		if q.subGen == gen && !q.closed {
			q.state.Err = err
			q.state.Loading = false
			q.publishLocked()
		}
		q.mu.Unlock()
		release(unsub, cancel)
		return
	}
	if q.closed || q.subGen != gen {
		q.mu.Unlock()
		release(unsub, cancel)
		return
	}
	q.unsub, q.cancel = unsub, cancel
	q.mu.Unlock()
}

// open subscribes and routes failures raised while opening, panics included,
// into the returned error.
func (q *Query) open(ctx context.Context, gen uint64, args Args) (unsub Unsubscribe, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSubscription, r)
		}
	}()
	unsub, err = q.sub.Subscribe(ctx, q.name, args,
		func(v any) { q.onUpdate(gen, v) },
		func(e error) { q.onError(gen, e) },
	)
	if err != nil && !errors.Is(err, ErrSubscription) {
		var re *RemoteError
		if !errors.As(err, &re) {
			err = fmt.Errorf("%w: %w", ErrSubscription, err)
		}
	}
	return unsub, err
}

func (q *Query) onUpdate(gen uint64, v any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || gen != q.subGen {
		return
	}
	q.state.Data = v
	q.state.Loading = false
	q.publishLocked()
}

func (q *Query) onError(gen uint64, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || gen != q.subGen {
		return
	}
	q.state.Err = err
	q.state.Loading = false
	q.publishLocked()
}

// detachLocked forgets the current subscription and returns its handles.
// Callbacks still in flight for it are dropped from here on.
func (q *Query) detachLocked() (Unsubscribe, context.CancelFunc) {
	q.subGen++
	unsub, cancel := q.unsub, q.cancel
	q.unsub, q.cancel = nil, nil
	return unsub, cancel
}

func release(unsub Unsubscribe, cancel context.CancelFunc) {
	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
}

// publishLocked offers the current state on the updates channel, replacing
// any snapshot the reader has not taken yet.
func (q *Query) publishLocked() {
	s := q.state
	select {
	case <-q.updates:
	default:
	}
	select {
	case q.updates <- s:
	default:
	}
}

// State returns the current snapshot.
func (q *Query) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

func (q *Query) Data() any     { return q.State().Data }
func (q *Query) Err() error    { return q.State().Err }
func (q *Query) Loading() bool { return q.State().Loading }

// Updates delivers the latest state after each change. Intermediate states may
// be skipped. The channel is closed by Close.
func (q *Query) Updates() <-chan State {
	return q.updates
}

// Close cancels any pending re-subscription and tears down the live
// subscription. Further SetArgs calls are ignored.
func (q *Query) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	if q.timer != nil {
		q.timer.Stop()
	}
	unsub, cancel := q.detachLocked()
	close(q.updates)
	q.mu.Unlock()
	release(unsub, cancel)
}
