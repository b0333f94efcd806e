// Package widgets provides custom Fyne widgets for the audiolab demos.
package widgets

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"
)

// FrameSource provides the most recently drawn equalizer frame.
type FrameSource interface {
	Snapshot() *image.RGBA
}

// Equalizer shows the frames drawn by the visualizer, scaled to the widget.
// A tap or horizontal drag reports the horizontal position as a ratio in
// [0,1], which the demos with a cursor turn into a seek.
type Equalizer struct {
	widget.BaseWidget

	raster *canvas.Raster
	source FrameSource

	mu     sync.RWMutex
	onSeek func(ratio float64)
}

// NewEqualizer creates an equalizer widget reading frames from source.
func NewEqualizer(source FrameSource) *Equalizer {
	e := &Equalizer{source: source}
	e.raster = canvas.NewRaster(e.draw)
	e.raster.ScaleMode = canvas.ImageScalePixels
	e.ExtendBaseWidget(e)
	return e
}

// CreateRenderer implements fyne.Widget.
func (e *Equalizer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(e.raster)
}

// MinSize returns the native size of the frame.
func (e *Equalizer) MinSize() fyne.Size {
	b := e.source.Snapshot().Bounds()
	return fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
}

// SetOnSeek sets the seek handler. Nil disables seeking.
func (e *Equalizer) SetOnSeek(fn func(ratio float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSeek = fn
}

// draw renders the current frame at w x h pixels.
func (e *Equalizer) draw(w, h int) image.Image {
	frame := e.source.Snapshot()
	if w <= 0 || h <= 0 || frame.Bounds().Dx() == w && frame.Bounds().Dy() == h {
		return frame
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	// Nearest neighbour keeps the 1px bars crisp.
	draw.NearestNeighbor.Scale(out, out.Bounds(), frame, frame.Bounds(), draw.Src, nil)
	return out
}

// Tapped implements fyne.Tappable.
func (e *Equalizer) Tapped(pe *fyne.PointEvent) {
	e.seekTo(pe.Position.X)
}

// Dragged implements fyne.Draggable.
func (e *Equalizer) Dragged(de *fyne.DragEvent) {
	e.seekTo(de.Position.X)
}

// DragEnd implements fyne.Draggable.
func (e *Equalizer) DragEnd() {}

func (e *Equalizer) seekTo(x float32) {
	e.mu.RLock()
	fn := e.onSeek
	e.mu.RUnlock()

	width := e.Size().Width
	if fn == nil || width <= 0 {
		return
	}
	fn(min(max(float64(x/width), 0), 1))
}

// Cursor implements desktop.Cursorable.
func (e *Equalizer) Cursor() desktop.Cursor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.onSeek != nil {
		return desktop.PointerCursor
	}
	return desktop.DefaultCursor
}

var (
	_ fyne.Tappable      = (*Equalizer)(nil)
	_ fyne.Draggable     = (*Equalizer)(nil)
	_ desktop.Cursorable = (*Equalizer)(nil)
)
