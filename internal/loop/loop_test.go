package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(16)
	go l.Run(context.Background())
	t.Cleanup(l.Close)
	return l
}

func TestLoop_RunsInOrder(t *testing.T) {
	l := startLoop(t)

	var order []int
	for i := range 5 {
		l.Post(func() { order = append(order, i) })
	}
	require.NoError(t, l.Do(context.Background(), func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLoop_DoAfterClose(t *testing.T) {
	l := startLoop(t)
	l.Close()

	err := l.Do(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, l.Post(func() {}))
}

func TestLoop_ContextCancelStops(t *testing.T) {
	l := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on context cancel")
	}
}

func TestTimer_Fires(t *testing.T) {
	l := startLoop(t)

	var fired atomic.Bool
	require.NoError(t, l.Do(context.Background(), func() {
		l.AfterFunc(10*time.Millisecond, func() { fired.Store(true) })
	}))

	assert.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
}

func TestTimer_StopPreventsFire(t *testing.T) {
	l := startLoop(t)

	var fired atomic.Bool
	var tm *Timer
	require.NoError(t, l.Do(context.Background(), func() {
		tm = l.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })
	}))
	require.NoError(t, l.Do(context.Background(), func() { tm.Stop() }))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestTimer_StopNil(t *testing.T) {
	var tm *Timer
	assert.NotPanics(t, func() { tm.Stop() })
}
