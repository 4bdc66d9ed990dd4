// Package update runs periodic recomputes for text objects. Each
// registration is an owned Handle stored on the object; tearing the object
// down releases the handle and stops the recompute.
package update

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/opal-lang/monitext/core/invariant"
)

// Func is one recompute. ctx is cancelled when the handle is released.
type Func func(ctx context.Context)

// Scheduler owns every live registration.
//
// Thread-safe: Register, Release and Close may be called concurrently.
type Scheduler struct {
	mu      sync.Mutex
	handles map[*Handle]struct{}
	closed  bool
	logger  zerolog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger routes scheduler diagnostics to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates an empty scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		handles: make(map[*Handle]struct{}),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle is an owned periodic registration.
type Handle struct {
	s        *Scheduler
	name     string
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
	runs     atomic.Int64
}

// Register runs fn immediately and then every interval until the handle is
// released or the scheduler is closed. Registering on a closed scheduler
// returns an already released handle.
func (s *Scheduler) Register(name string, interval time.Duration, fn Func) *Handle {
	invariant.Precondition(interval > 0, "update interval must be positive, got %s", interval)
	invariant.NotNil(fn, "update func")

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		s:        s,
		name:     name,
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		close(h.done)
		h.once.Do(func() {})
		return h
	}
	s.handles[h] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug().Str("object", name).Dur("interval", interval).Msg("update registered")
	go h.loop(ctx, fn)
	return h
}

func (h *Handle) loop(ctx context.Context, fn Func) {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		fn(ctx)
		h.runs.Add(1)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Release stops the recompute and waits for a running call to return. It is
// idempotent. It must not be called from inside the handle's own Func.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.cancel()
		<-h.done

		h.s.mu.Lock()
		delete(h.s.handles, h)
		h.s.mu.Unlock()

		h.s.logger.Debug().Str("object", h.name).Int64("runs", h.runs.Load()).Msg("update released")
	})
}

// Runs returns how many times the recompute has completed.
func (h *Handle) Runs() int64 {
	return h.runs.Load()
}

// Interval returns the recompute interval.
func (h *Handle) Interval() time.Duration {
	return h.interval
}

// Len returns the number of live registrations.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Close releases every live registration. Later registrations are no-ops.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	handles := make([]*Handle, 0, len(s.handles))
	for h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.Release()
	}
}
