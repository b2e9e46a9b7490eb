package live

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// QueryFunc is a read-only backend function. It is re-run whenever its scope
// is invalidated.
type QueryFunc func(ctx context.Context, args Args) (any, error)

// MutationFunc is a backend function that changes state.
type MutationFunc func(ctx context.Context, args Args) (any, error)

// Unsubscribe tears down a live subscription. It is safe to call more than once.
type Unsubscribe func()

// Subscriber opens live subscriptions to named queries. onUpdate receives every
// pushed result and onError every pushed failure, in order, until the returned
// Unsubscribe is called or ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, name string, args Args, onUpdate func(any), onError func(error)) (Unsubscribe, error)
}

// Caller runs a named backend function once.
type Caller interface {
	Call(ctx context.Context, name string, args Args) (any, error)
}

// ScopeKey is the argument that scopes a subscription for invalidation.
const ScopeKey = "userId"

// Hub is an in-process function registry with live queries. It implements
// both Subscriber and Caller.
type Hub struct {
	mu        sync.Mutex
	queries   map[string]QueryFunc
	mutations map[string]MutationFunc
	subs      map[uint64]*hubSub
	nextID    uint64
	logger    *slog.Logger
}

type hubSub struct {
	scope  string
	kick   chan struct{}
	cancel context.CancelFunc
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		queries:   make(map[string]QueryFunc),
		mutations: make(map[string]MutationFunc),
		subs:      make(map[uint64]*hubSub),
		logger:    logger,
	}
}

func (h *Hub) RegisterQuery(name string, fn QueryFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries[name] = fn
}

func (h *Hub) RegisterMutation(name string, fn MutationFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations[name] = fn
}

// Functions lists registered query and mutation names in sorted order.
func (h *Hub) Functions() (queries, mutations []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for name := range h.queries {
		queries = append(queries, name)
	}
	for name := range h.mutations {
		mutations = append(mutations, name)
	}
	sort.Strings(queries)
	sort.Strings(mutations)
	return queries, mutations
}

// IsQuery reports whether name is a registered query.
func (h *Hub) IsQuery(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.queries[name]
	return ok
}

// Subscriptions is the number of open subscriptions.
func (h *Hub) Subscriptions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Subscribe(ctx context.Context, name string, args Args, onUpdate func(any), onError func(error)) (Unsubscribe, error) {
	h.mu.Lock()
	fn, ok := h.queries[name]
	if !ok {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &hubSub{scope: scopeOf(args), kick: make(chan struct{}, 1), cancel: cancel}
	h.nextID++
	id := h.nextID
	h.subs[id] = sub
	h.mu.Unlock()

	sub.kick <- struct{}{}
	args = args.clone()
	go func() {
		defer h.remove(id)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.kick:
			}
			v, err := h.run(ctx, name, fn, args)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				onError(err)
				continue
			}
			onUpdate(v)
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

// Invalidate re-runs every subscription whose scope matches. An empty scope
// re-runs all of them. Re-runs already pending are coalesced.
func (h *Hub) Invalidate(scope string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if scope != "" && sub.scope != scope {
			continue
		}
		select {
		case sub.kick <- struct{}{}:
		default:
		}
	}
}

// Call runs a mutation, or a query once if no mutation has that name.
func (h *Hub) Call(ctx context.Context, name string, args Args) (any, error) {
	h.mu.Lock()
	mfn, isMutation := h.mutations[name]
	qfn, isQuery := h.queries[name]
	h.mu.Unlock()

	switch {
	case isMutation:
		return h.run(ctx, name, QueryFunc(mfn), args)
	case isQuery:
		return h.run(ctx, name, qfn, args)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
}

func (h *Hub) run(ctx context.Context, name string, fn QueryFunc, args Args) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("function panicked", "function", name, "panic", r)
			err = fmt.Errorf("function %s panicked", name)
		}
	}()
	return fn(ctx, args)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		sub.cancel()
		delete(h.subs, id)
	}
}

func scopeOf(args Args) string {
	if s, ok := args[ScopeKey].(string); ok {
		return s
	}
	return ""
}
