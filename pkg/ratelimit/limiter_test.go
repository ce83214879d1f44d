package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_AllowsUpToRPM(t *testing.T) {
	fixed := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	l := New(WithRPM(3), WithDailyCap(100), withNow(func() time.Time { return fixed }))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx))
	}

	snap := l.Snapshot()
	assert.Equal(t, 3, snap.WindowCalls)
}

func TestAcquire_BlocksPastRPMUntilWindowSlides(t *testing.T) {
	var cur int64
	clock := func() time.Time {
		return time.Unix(0, atomic.LoadInt64(&cur))
	}
	l := New(WithRPM(1), WithDailyCap(100), withNow(clock))

	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx))

	done := make(chan struct{})
	go func() {
		require.NoError(t, l.Acquire(ctx))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second acquire should have blocked within the 60s window")
	case <-time.After(250 * time.Millisecond):
	}

	atomic.StoreInt64(&cur, int64(61*time.Second))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire did not unblock after window slid")
	}
}

func TestAcquire_RespectsDailyCap(t *testing.T) {
	fixed := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	l := New(WithRPM(100), WithDailyCap(1), withNow(func() time.Time { return fixed }))

	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx))

	ctx2, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx2)
	require.Error(t, err)
}

func TestAcquire_ContextCancelUnblocks(t *testing.T) {
	fixed := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	l := New(WithRPM(1), WithDailyCap(100), withNow(func() time.Time { return fixed }))

	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx))

	ctx2, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		err = l.Acquire(ctx2)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()
	require.Error(t, err)
}

func TestAcquire_DoesNotDropCallsWithinRPM(t *testing.T) {
	fixed := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	l := New(WithRPM(2), WithDailyCap(100), withNow(func() time.Time { return fixed }))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, 2, l.Snapshot().WindowCalls)
}
