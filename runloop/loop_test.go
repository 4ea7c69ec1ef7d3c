package runloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc, <-chan error) {
	t.Helper()
	l := New(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	t.Cleanup(cancel)
	return l, cancel, errCh
}

func TestLoop_DoRunsOnLoop(t *testing.T) {
	l, _, _ := startLoop(t)

	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_TicksUntilStopped(t *testing.T) {
	l, _, _ := startLoop(t)

	var count atomic.Int32
	require.NoError(t, l.Do(context.Background(), func() {
		l.Start(func() {
			if count.Add(1) == 3 {
				l.Stop()
			}
		})
	}))

	require.Eventually(t, func() bool { return count.Load() == 3 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(3), count.Load())
	assert.Equal(t, int64(3), l.Ticks())
}

func TestLoop_AfterFuncAndCancel(t *testing.T) {
	l, _, _ := startLoop(t)

	var fired, cancelled atomic.Bool
	require.NoError(t, l.Do(context.Background(), func() {
		l.AfterFunc(5*time.Millisecond, func() { fired.Store(true) })
		cancel := l.AfterFunc(5*time.Millisecond, func() { cancelled.Store(true) })
		cancel()
	}))

	require.Eventually(t, fired.Load, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.False(t, cancelled.Load())
}

func TestLoop_PostAfterExit(t *testing.T) {
	l, cancel, errCh := startLoop(t)
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrStopped)
}
