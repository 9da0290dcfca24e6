package idempotency

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(ctx).Err())

	return client
}

func TestStateTracker_Cooldown(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tracker := NewWithPrefix(newRedis(t), "test:")
	key := "identity:otp:registration:lead@example.com"

	// Act
	first, err := tracker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	second, err := tracker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)

	require.NoError(t, tracker.Release(ctx, key))
	third, err := tracker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, StateNone, first)
	assert.Equal(t, StateInProgress, second)
	assert.Equal(t, StateNone, third)
}

func TestStateTracker_Expiry(t *testing.T) {
	// Arrange
	ctx := context.Background()
	client := newRedis(t)
	tracker := New(client)

	// Act
	first, err := tracker.Acquire(ctx, "otp_cooldown:user:42", 200*time.Millisecond)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, StateNone, first)
	assert.Eventually(t, func() bool {
		state, err := tracker.Acquire(ctx, "otp_cooldown:user:42", time.Minute)
		return err == nil && state == StateNone
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStateTracker_InvalidState(t *testing.T) {
	ctx := context.Background()
	client := newRedis(t)
	tracker := NewWithPrefix(client, "test:")
	require.NoError(t, client.Set(ctx, "test:broken", "garbage", time.Minute).Err())

	state, err := tracker.Acquire(ctx, "broken", time.Minute)

	assert.Equal(t, StateError, state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateTracker_RejectsNonPositiveHold(t *testing.T) {
	tracker := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))

	state, err := tracker.Acquire(context.Background(), "k", 0)

	assert.Equal(t, StateError, state)
	assert.Error(t, err)
}
