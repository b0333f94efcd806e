// Package clock provides frame clocks that drive a render loop.
package clock

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// DefaultFrameRate is the tick rate used when none is configured.
const DefaultFrameRate = 60

// Ticker is a FrameClock backed by time.Ticker. It is the display-refresh
// stand-in for frontends that repaint on demand (Fyne) and for headless runs.
//
// Ticks are delivered on a single goroutine owned by the clock.
type Ticker struct {
	logger   *slog.Logger
	interval time.Duration
	origin   time.Time

	mu     sync.Mutex
	tick   func(timestampMs float64)
	stopCh chan struct{}
	wg     sync.WaitGroup

	inTick atomic.Bool
}

// NewTicker creates a clock ticking frameRate times per second.
// A non-positive frameRate selects DefaultFrameRate.
func NewTicker(logger *slog.Logger, frameRate int) *Ticker {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &Ticker{
		logger:   logger.With(slog.String("component", "frame-clock")),
		interval: time.Second / time.Duration(frameRate),
		origin:   time.Now(),
	}
}

// Interval returns the time between ticks.
func (c *Ticker) Interval() time.Duration {
	return c.interval
}

// Start begins delivering ticks to tick. On a running clock it only
// swaps the tick function.
func (c *Ticker) Start(tick func(timestampMs float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick = tick
	if c.stopCh != nil {
		return
	}

	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.run(c.stopCh)

	c.logger.Debug("frame clock started", slog.Duration("interval", c.interval))
}

// Stop cancels future ticks. When called from outside a tick it waits for the
// clock goroutine to exit; from inside a tick it returns immediately and the
// goroutine exits after the tick completes.
func (c *Ticker) Stop() {
	c.mu.Lock()
	if c.stopCh == nil {
		c.mu.Unlock()
		return
	}
	close(c.stopCh)
	c.stopCh = nil
	c.tick = nil
	c.mu.Unlock()

	if !c.inTick.Load() {
		c.wg.Wait()
	}

	c.logger.Debug("frame clock stopped")
}

// run delivers ticks until stop closes. A goroutine whose stop is no longer
// the clock's current one exits without ticking, so a Stop and Start pair
// issued during a tick never lets the old goroutine reach the new tick func.
func (c *Ticker) run(stop chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			if c.stopCh != stop {
				c.mu.Unlock()
				return
			}
			tick := c.tick
			c.mu.Unlock()

			if tick == nil {
				continue
			}

			c.inTick.Store(true)
			tick(float64(now.Sub(c.origin)) / float64(time.Millisecond))
			c.inTick.Store(false)
		}
	}
}

// AfterTick wraps a clock so that after runs once following every tick.
// The Fyne frontend uses it to schedule a repaint of the drawn frame.
func AfterTick(inner ports.FrameClock, after func()) *Chained {
	return &Chained{inner: inner, after: after}
}

// Chained is a clock decorator created by AfterTick.
type Chained struct {
	inner ports.FrameClock
	after func()
}

// Start starts the wrapped clock with tick followed by the after hook.
func (c *Chained) Start(tick func(timestampMs float64)) {
	c.inner.Start(func(ts float64) {
		tick(ts)
		c.after()
	})
}

// Stop stops the wrapped clock.
func (c *Chained) Stop() {
	c.inner.Stop()
}
