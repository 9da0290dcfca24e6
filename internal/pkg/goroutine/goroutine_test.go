package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_WaitJoinsErrors(t *testing.T) {
	// Arrange
	m := NewManager(4)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	var ran atomic.Int32

	// Act
	m.Go(context.Background(), func(context.Context) error { ran.Add(1); return errA })
	m.Go(context.Background(), func(context.Context) error { ran.Add(1); return nil })
	m.Go(context.Background(), func(context.Context) error { ran.Add(1); return errB })
	err := m.Wait()

	// Assert
	assert.EqualValues(t, 3, ran.Load())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(1)

	m.Go(context.Background(), func(context.Context) error { panic("boom") })

	assert.NoError(t, m.Wait())
}

func TestManager_DropsWhenFull(t *testing.T) {
	// Arrange
	m := NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})
	var second atomic.Bool

	m.Go(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	// Act
	m.Go(context.Background(), func(context.Context) error { second.Store(true); return nil })
	close(release)

	// Assert
	assert.NoError(t, m.Wait())
	assert.False(t, second.Load())
}

func TestManager_ClosedAndCanceled(t *testing.T) {
	m := NewManager(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Bool

	m.Go(ctx, func(context.Context) error { ran.Store(true); return nil })
	assert.NoError(t, m.Wait())

	m.Go(context.Background(), func(context.Context) error { ran.Store(true); return nil })
	assert.NoError(t, m.Wait())
	assert.False(t, ran.Load())

	var nilManager *Manager
	nilManager.Go(context.Background(), func(context.Context) error { return nil })
	assert.NoError(t, nilManager.Wait())
}
