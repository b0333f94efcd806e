// Package renderloop drives a per-frame callback from a frame clock.
//
// Each frame the loop computes the time since the previous frame, resets the
// surface transform, clears the surface and hands control to the registered
// callback. The loop can be stopped and started again any number of times.
package renderloop

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// FrameFunc draws one frame. deltaMs is the time since the previous frame;
// on the very first frame it is the full timestamp.
type FrameFunc func(deltaMs, timestampMs float64)

// Loop is a restartable frame driver bound to one surface.
//
// Thread-safety: Start, Stop and SetOnFrame may be called from any goroutine.
// Frames run on the clock's goroutine.
type Loop struct {
	logger  *slog.Logger
	clock   ports.FrameClock
	surface ports.Surface

	// lifecycle serialises Start and Stop so state and clock registration agree
	lifecycle sync.Mutex
	state     atomic.Int32

	mu       sync.Mutex
	prev     float64
	onFrame  FrameFunc
	frames   atomic.Uint64
	failures atomic.Uint64
}

// New creates a stopped loop drawing onto surface.
func New(logger *slog.Logger, clock ports.FrameClock, surface ports.Surface) *Loop {
	return &Loop{
		logger:  logger.With(slog.String("component", "render-loop")),
		clock:   clock,
		surface: surface,
	}
}

// Start begins requesting frames. Starting a running loop does nothing, so
// the clock never holds two registrations for one loop.
func (l *Loop) Start() {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if !l.state.CompareAndSwap(int32(domain.LoopStopped), int32(domain.LoopRunning)) {
		return
	}
	l.clock.Start(l.frame)
	l.logger.Debug("render loop started")
}

// Stop cancels future frames. A frame already executing finishes normally.
func (l *Loop) Stop() {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	if !l.state.CompareAndSwap(int32(domain.LoopRunning), int32(domain.LoopStopped)) {
		return
	}
	l.clock.Stop()
	l.logger.Debug("render loop stopped", slog.Uint64("frames", l.frames.Load()))
}

// SetOnFrame replaces the frame callback. Nil keeps the loop clearing the
// surface without drawing. The change applies from the next frame.
func (l *Loop) SetOnFrame(fn FrameFunc) {
	l.mu.Lock()
	l.onFrame = fn
	l.mu.Unlock()
}

// State returns whether the loop is running.
func (l *Loop) State() domain.LoopState {
	return domain.LoopState(l.state.Load())
}

// Frames returns the number of frames processed since creation.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Failures returns the number of frames whose callback panicked.
func (l *Loop) Failures() uint64 {
	return l.failures.Load()
}

// frame is the clock tick handler.
func (l *Loop) frame(ts float64) {
	// late tick racing a Stop
	if l.State() != domain.LoopRunning {
		return
	}

	l.mu.Lock()
	delta := ts - l.prev
	l.prev = ts
	fn := l.onFrame
	l.mu.Unlock()

	n := l.frames.Add(1)

	if fs, ok := l.surface.(ports.FrameSurface); ok {
		fs.BeginFrame()
		defer fs.EndFrame()
	}

	l.surface.SetTransform(1, 0, 0, 1, 0, 0)
	l.surface.Clear()

	if fn == nil {
		return
	}
	l.invoke(fn, delta, ts, n)
}

// invoke runs the callback, converting a panic into a logged failure so a
// broken frame never stops the loop.
func (l *Loop) invoke(fn FrameFunc, delta, ts float64, n uint64) {
	defer func() {
		if r := recover(); r != nil {
			l.failures.Add(1)
			l.logger.Error("frame callback panicked",
				slog.Uint64("frame", n),
				slog.Float64("timestamp_ms", ts),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()

	fn(delta, ts)
}
