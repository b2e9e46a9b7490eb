// Package scheduler runs detached background actions, the way a function
// platform runs work scheduled with "run after" from inside a mutation.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Action is a unit of scheduled work. Its context is cancelled on Shutdown.
type Action func(ctx context.Context) error

// Scheduler starts actions on their own goroutine and tracks them so the
// process can drain them before exit.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel, logger: logger}
}

// RunAfter runs fn once delay has elapsed. The caller never observes the
// outcome; failures are logged under name.
func (s *Scheduler) RunAfter(delay time.Duration, name string, fn Action) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-s.ctx.Done():
				s.logger.Warn("scheduled action dropped", "action", name)
				return
			}
		}
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled action panicked", "action", name, "panic", r)
			}
		}()
		if err := fn(s.ctx); err != nil {
			s.logger.Error("scheduled action failed", "action", name, "err", err)
		}
	}()
}

// Wait blocks until every started action has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Shutdown waits for running actions until ctx is done, then cancels them.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}
