package clock

import (
	"sync"
)

// Manual is a FrameClock that ticks only when told to. Tests and the
// ebiten frontend, whose Update callback is the real display clock, use it.
type Manual struct {
	mu     sync.Mutex
	tick   func(timestampMs float64)
	now    float64
	starts int
}

// NewManual creates a stopped manual clock at timestamp 0.
func NewManual() *Manual {
	return &Manual{}
}

// Start registers tick.
func (c *Manual) Start(tick func(timestampMs float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = tick
	c.starts++
}

// Stop unregisters the tick function.
func (c *Manual) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = nil
}

// Running reports whether a tick function is registered.
func (c *Manual) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick != nil
}

// Starts returns how many times Start has been called.
func (c *Manual) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

// Now returns the timestamp of the last tick.
func (c *Manual) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// TickAt delivers one tick at timestamp ts. It reports false when the clock
// is stopped and nothing was delivered.
func (c *Manual) TickAt(ts float64) bool {
	c.mu.Lock()
	tick := c.tick
	c.now = ts
	c.mu.Unlock()

	if tick == nil {
		return false
	}
	tick(ts)
	return true
}

// Advance moves the clock forward by deltaMs and delivers a tick.
func (c *Manual) Advance(deltaMs float64) bool {
	c.mu.Lock()
	ts := c.now + deltaMs
	c.mu.Unlock()
	return c.TickAt(ts)
}
