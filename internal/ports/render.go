// Package ports define the drawing and timing capabilities the render core needs.
package ports

import (
	"image/color"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
)

// FrameClock delivers one tick per display frame.
//
// Start registers the tick function and begins delivery; timestamps are
// monotonic milliseconds. Stop cancels future ticks. A tick already running
// when Stop is called may still complete. Calling Start on a running clock
// replaces the tick function.
type FrameClock interface {
	Start(tick func(timestampMs float64))
	Stop()
}

// Surface is a 2D drawing target with a current transform, fill style and
// composite operation, modelled on a canvas 2D context.
//
// Surfaces are used from the frame goroutine only; implementations that expose
// their pixels to other goroutines must synchronise that themselves.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)

	// Clear makes every pixel transparent. The transform is not used.
	Clear()

	// Save pushes the transform, fill style and composite operation.
	Save()

	// Restore pops the state pushed by the matching Save. Unbalanced calls are ignored.
	Restore()

	// SetTransform replaces the transform with (a b c d e f), mapping
	// user (x, y) to device (a*x + c*y + e, b*x + d*y + f).
	SetTransform(a, b, c, d, e, f float64)

	// Translate prepends a translation to the transform.
	Translate(x, y float64)

	// Scale prepends a scale to the transform.
	Scale(sx, sy float64)

	// SetFillColor selects a solid fill.
	SetFillColor(c color.NRGBA)

	// SetFillGradient selects a linear gradient fill in user space.
	SetFillGradient(g domain.LinearGradient)

	// SetCompositeOp selects how fills combine with existing pixels.
	SetCompositeOp(op domain.CompositeOp)

	// FillRect fills the rectangle in user space with the current style.
	// Negative width or height extend left or up from (x, y).
	FillRect(x, y, width, height float64)
}

// FrameSurface is a Surface whose pixels are read by other goroutines.
// The render loop brackets each frame with BeginFrame and EndFrame; readers
// only ever see the last completed frame.
type FrameSurface interface {
	Surface
	BeginFrame()
	EndFrame()
}

// SampleSink accepts one full frame of per-bin values from an analyser.
type SampleSink interface {
	Write(samples []float32) error
}

// CursorSink accepts the normalised playback position.
type CursorSink interface {
	SetCursor(position float64)
}
