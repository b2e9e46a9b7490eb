package live

import (
	"context"
	"fmt"
	"sync"
)

// Mutation runs a named backend function on demand and tracks the loading and
// error cells of the most recent call.
type Mutation struct {
	caller Caller
	name   string

	mu      sync.Mutex
	loading bool
	err     error
}

func UseMutation(caller Caller, name string) (*Mutation, error) {
	if caller == nil || name == "" {
		return nil, ErrMissingMutation
	}
	return &Mutation{caller: caller, name: name}, nil
}

// Mutate clears the error cell, runs the function and returns its result. A
// failure is recorded in the error cell and also returned. Concurrent calls
// share the cells, so the last one to finish wins.
func (m *Mutation) Mutate(ctx context.Context, args Args) (v any, err error) {
	m.mu.Lock()
	m.loading = true
	m.err = nil
	m.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMutation, r)
		}
		m.mu.Lock()
		m.loading = false
		if err != nil {
			m.err = err
		}
		m.mu.Unlock()
	}()
	return m.caller.Call(ctx, m.name, args)
}

func (m *Mutation) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}
