// Package goroutine runs background work (broker consumers, export archiving)
// under a concurrency cap so shutdown can wait for all of it.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/datasprint/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by runtime.NumCPU when no limit is given.
const DefaultMaxGoroutine int = 100

// Manager is a bounded, panic-safe goroutine group. After Wait is called it
// refuses new work.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	errs  []error
}

func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{slots: make(chan struct{}, limit)}
}

// Go starts fn unless the manager is closed or every slot is taken; both
// cases are logged and fn is dropped. fn is skipped when ctx is already done.
func (m *Manager) Go(ctx context.Context, fn func(ctx context.Context) error) {
	if m == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine manager closed, task dropped")
		return
	}

	select {
	case m.slots <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, task dropped", "limit", cap(m.slots))
		return
	}

	m.wg.Go(func() {
		defer func() { <-m.slots }()
		defer m.recover(ctx)

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "error", err)
			return
		}

		if err := fn(ctx); err != nil {
			m.errMu.Lock()
			m.errs = append(m.errs, err)
			m.errMu.Unlock()
		}
	})
}

// Wait closes the manager, blocks until running tasks return and joins
// their errors.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()

	m.errMu.Lock()
	defer m.errMu.Unlock()
	return errors.Join(m.errs...)
}

func (m *Manager) recover(ctx context.Context) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
		slog.ErrorContext(ctx, "goroutine panicked", "panic", rvr, "stack", frames)
		return
	}
	slog.ErrorContext(ctx, "goroutine panicked", "panic", rvr, "stack", string(stack))
}
