package resend_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heetch/courier/resend"
)

func TestPool(t *testing.T) {
	p, err := resend.NewPool(4)
	require.NoError(t, err)
	defer p.Release()

	var wg sync.WaitGroup
	wg.Add(2)
	start := time.Now()
	require.NoError(t, p.Schedule(0, wg.Done))
	require.NoError(t, p.Schedule(20*time.Millisecond, wg.Done))
	wg.Wait()
	require.True(t, time.Since(start) >= 20*time.Millisecond)
}

func TestPoolOverflow(t *testing.T) {
	p, err := resend.NewPool(1)
	require.NoError(t, err)
	defer p.Release()

	block := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Schedule(0, func() {
			defer wg.Done()
			<-block
		}))
	}
	close(block)
	wg.Wait()
}

func TestPoolReleased(t *testing.T) {
	p, err := resend.NewPool(1)
	require.NoError(t, err)
	p.Release()
	require.Error(t, p.Schedule(0, func() {}))

	// Delayed tasks still run once their delay expires.
	done := make(chan struct{})
	require.NoError(t, p.Schedule(time.Millisecond, func() { close(done) }))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("delayed task did not run")
	}
}

func TestGoScheduler(t *testing.T) {
	done := make(chan struct{})
	require.NoError(t, resend.Go().Schedule(time.Millisecond, func() { close(done) }))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestBackoff(t *testing.T) {
	timer := resend.Immediate().NewTimer(time.Now())
	for i := 0; i < 5; i++ {
		d, ok := timer.NextSleep(time.Now())
		require.True(t, ok)
		require.Zero(t, d)
	}

	// The clock moves forward by each delay, as it does when the
	// engine waits before the next attempt.
	now := time.Now()
	timer = resend.Exponential(time.Millisecond, 10*time.Millisecond, 2, false).NewTimer(now)
	var delays []time.Duration
	for i := 0; i < 6; i++ {
		d, ok := timer.NextSleep(now)
		require.True(t, ok)
		require.True(t, d <= 10*time.Millisecond, "delay %v exceeds maximum", d)
		delays = append(delays, d)
		now = now.Add(d)
	}
	require.Equal(t, 10*time.Millisecond, delays[len(delays)-1])
}
