package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/audiolab/internal/logger"
	"github.com/tejashwikalptaru/audiolab/internal/testutil"
)

func TestTicker_DeliversMonotonicTicks(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := NewTicker(logger.NewTestLogger(), 200)
	assert.Equal(t, 5*time.Millisecond, c.Interval())

	stamps := make(chan float64, 64)
	c.Start(func(ts float64) {
		select {
		case stamps <- ts:
		default:
		}
	})

	var prev float64
	for i := 0; i < 3; i++ {
		select {
		case ts := <-stamps:
			assert.Greater(t, ts, prev)
			prev = ts
		case <-time.After(time.Second):
			t.Fatal("no tick delivered")
		}
	}

	c.Stop()
}

func TestTicker_StopTwice(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := NewTicker(logger.NewTestLogger(), 0)
	assert.Equal(t, time.Second/DefaultFrameRate, c.Interval())

	c.Start(func(float64) {})
	c.Stop()
	c.Stop()
}

func TestTicker_StopFromInsideTick(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := NewTicker(logger.NewTestLogger(), 500)

	var ticks atomic.Int32
	done := make(chan struct{})
	c.Start(func(float64) {
		if ticks.Add(1) == 1 {
			c.Stop()
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tick never ran")
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), ticks.Load())
}

func TestTicker_RestartAfterStop(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := NewTicker(logger.NewTestLogger(), 500)
	c.Start(func(float64) {})
	c.Stop()

	got := make(chan struct{}, 1)
	c.Start(func(float64) {
		select {
		case got <- struct{}{}:
		default:
		}
	})

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("restarted clock did not tick")
	}
	c.Stop()
}

func TestManual(t *testing.T) {
	c := NewManual()
	assert.False(t, c.Advance(16), "stopped clock must not tick")

	var seen []float64
	c.Start(func(ts float64) { seen = append(seen, ts) })
	require.True(t, c.Running())

	assert.True(t, c.Advance(10))
	assert.True(t, c.Advance(5))
	assert.True(t, c.TickAt(100))

	c.Stop()
	assert.False(t, c.Advance(1))

	assert.Equal(t, []float64{26, 31, 100}, seen)
	assert.Equal(t, 1, c.Starts())
	assert.Equal(t, 101.0, c.Now())
}

func TestAfterTick(t *testing.T) {
	inner := NewManual()

	var order []string
	c := AfterTick(inner, func() { order = append(order, "after") })
	c.Start(func(float64) { order = append(order, "tick") })

	inner.Advance(1)
	inner.Advance(1)
	c.Stop()
	inner.Advance(1)

	assert.Equal(t, []string{"tick", "after", "tick", "after"}, order)
	assert.False(t, inner.Running())
}

func TestTicker_StaleGoroutineNeverTicks(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := NewTicker(logger.NewTestLogger(), 1000)

	var ticks atomic.Int32
	c.mu.Lock()
	c.tick = func(float64) { ticks.Add(1) }
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	// a goroutine left over from an earlier Start holds a stop channel that
	// is no longer current and may not be closed yet
	stale := make(chan struct{})
	exited := make(chan struct{})
	c.wg.Add(1)
	go func() {
		c.run(stale)
		close(exited)
	}()

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("stale goroutine kept running")
	}
	assert.Zero(t, ticks.Load())

	c.Stop()
}

func TestTicker_RestartWhileTickInFlight(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	c := NewTicker(logger.NewTestLogger(), 500)

	entered := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Int32
	c.Start(func(float64) {
		if first.Add(1) == 1 {
			close(entered)
			<-release
		}
	})

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("tick never ran")
	}

	// Stop from another goroutine returns while the tick is still running
	c.Stop()

	var active, overlap, second atomic.Int32
	c.Start(func(float64) {
		if active.Add(1) > 1 {
			overlap.Add(1)
		}
		second.Add(1)
		time.Sleep(time.Millisecond)
		active.Add(-1)
	})
	close(release)

	assert.Eventually(t, func() bool { return second.Load() >= 5 }, time.Second, time.Millisecond)
	c.Stop()

	assert.Equal(t, int32(1), first.Load())
	assert.Zero(t, overlap.Load())
}
