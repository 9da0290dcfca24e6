// Package idempotency holds short-lived operation keys in redis so a second
// caller can tell an operation for the same key is already underway.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidState = errors.New("idempotency: invalid state")

// State is what Acquire found under a key.
type State string

const (
	// StateNone means the key was free and the caller now holds it.
	StateNone State = "none"
	// StateInProgress means another caller holds the key.
	StateInProgress State = "in_progress"
	StateError      State = "error"
)

type Idempotency interface {
	Acquire(ctx context.Context, key string, hold time.Duration) (State, error)
	Release(ctx context.Context, key string) error
}

const DefaultPrefix = "datasprint:idempotency:"

// StateTracker is the redis implementation of Idempotency.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient) *StateTracker {
	return NewWithPrefix(client, DefaultPrefix)
}

func NewWithPrefix(client redis.UniversalClient, prefix string) *StateTracker {
	return &StateTracker{client: client, prefix: prefix}
}

// Acquire claims key for hold with a single SET NX GET, so two racing
// callers can never both see StateNone.
func (s *StateTracker) Acquire(ctx context.Context, key string, hold time.Duration) (State, error) {
	if hold <= 0 {
		return StateError, fmt.Errorf("idempotency: hold must be positive, got %s", hold)
	}

	prev, err := s.client.SetArgs(ctx, s.prefix+key, string(StateInProgress), redis.SetArgs{
		Mode: "NX",
		TTL:  hold,
		Get:  true,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return StateNone, nil
	case err != nil:
		return StateError, err
	case State(prev) == StateInProgress:
		return StateInProgress, nil
	default:
		return StateError, fmt.Errorf("%w: %q", ErrInvalidState, prev)
	}
}

// Release frees key early. Releasing a free key is not an error.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
