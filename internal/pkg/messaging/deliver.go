package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/shandysiswandi/datasprint/internal/pkg/stacktrace"
)

// settleOnce makes Ack and Nack idempotent per delivery.
type settleOnce struct {
	done atomic.Bool
}

func (s *settleOnce) claim() bool   { return !s.done.Swap(true) }
func (s *settleOnce) settled() bool { return s.done.Load() }

type delivery interface {
	Message
	settled() bool
}

// deliver runs h with panic recovery and settles msg unless the handler
// already did or manual ack was requested.
func deliver(ctx context.Context, driver string, msg delivery, h Handler, co consumeOptions) error {
	err := safeHandle(ctx, driver, msg, h)
	if co.manualAck || msg.settled() {
		return err
	}

	if err != nil {
		if nerr := msg.Nack(ctx); nerr != nil {
			return errors.Join(err, nerr)
		}
		return err
	}

	return msg.Ack(ctx)
}

func safeHandle(ctx context.Context, driver string, msg Message, h Handler) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
			slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "topic", msg.Topic(), "panic", rvr, "stack", frames)
		} else {
			slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "topic", msg.Topic(), "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: %s handler panic: %v", driver, rvr)
	}()

	return h(ctx, msg)
}

// workers drains in with n goroutines until it is closed.
func workers[T any](n int, in <-chan T, fn func(T)) *sync.WaitGroup {
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			for v := range in {
				fn(v)
			}
		})
	}
	return &wg
}

func cloneHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if k != "" {
			out[k] = v
		}
	}
	return out
}
