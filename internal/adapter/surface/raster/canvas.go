// Package raster implements ports.Surface on an in-memory RGBA image.
//
// Filling samples each device pixel at its centre, maps it back into user
// space through the inverse transform and tests it against the rectangle.
// There is no anti-aliasing; bars are one pixel wide and axis aligned so
// coverage is exact.
package raster

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/math/f64"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
)

// identity is the transform (1 0 0 1 0 0).
var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

type drawState struct {
	// m maps user space to device space: x' = m[0]x + m[1]y + m[2], y' = m[3]x + m[4]y + m[5]
	m        f64.Aff3
	fill     color.NRGBA
	gradient *domain.LinearGradient
	op       domain.CompositeOp
}

// Canvas is a drawable RGBA surface.
//
// Drawing calls come from the frame goroutine; Snapshot and Pixel may be called
// from any goroutine. Between BeginFrame and EndFrame drawing goes to a back
// buffer and Snapshot keeps returning the previous frame.
type Canvas struct {
	mu      sync.RWMutex
	img     *image.RGBA
	front   *image.RGBA
	inFrame bool
	state   drawState
	stack   []drawState
}

// New creates a transparent canvas of the given size.
func New(width, height int) *Canvas {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	r := image.Rect(0, 0, width, height)
	return &Canvas{
		img:   image.NewRGBA(r),
		front: image.NewRGBA(r),
		state: drawState{m: identity, fill: color.NRGBA{A: 255}},
	}
}

// BeginFrame starts drawing a new frame; Snapshot serves the last completed one
// until EndFrame.
func (c *Canvas) BeginFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFrame = true
}

// EndFrame publishes the frame drawn since BeginFrame.
func (c *Canvas) EndFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.front.Pix, c.img.Pix)
	c.inFrame = false
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear makes every pixel transparent.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.img.Pix)
}

// Save pushes the drawing state.
func (c *Canvas) Save() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stack = append(c.stack, c.state)
}

// Restore pops the drawing state. Restore without Save is ignored.
func (c *Canvas) Restore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// SetTransform replaces the transform with the canvas-order matrix (a b c d e f).
func (c *Canvas) SetTransform(a, b, cc, d, e, f float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.m = f64.Aff3{a, cc, e, b, d, f}
}

// Translate applies a translation in user space.
func (c *Canvas) Translate(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.m = mul(c.state.m, f64.Aff3{1, 0, x, 0, 1, y})
}

// Scale applies a scale in user space.
func (c *Canvas) Scale(sx, sy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.m = mul(c.state.m, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// Transform returns the current transform in canvas order (a b c d e f).
func (c *Canvas) Transform() [6]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.state.m
	return [6]float64{m[0], m[3], m[1], m[4], m[2], m[5]}
}

// SetFillColor selects a solid fill.
func (c *Canvas) SetFillColor(col color.NRGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.fill = col
	c.state.gradient = nil
}

// SetFillGradient selects a gradient fill.
func (c *Canvas) SetFillGradient(g domain.LinearGradient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g.Stops = append([]domain.ColorStop(nil), g.Stops...)
	c.state.gradient = &g
}

// SetCompositeOp selects the blend used by later fills.
func (c *Canvas) SetCompositeOp(op domain.CompositeOp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.op = op
}

// FillRect fills a user-space rectangle.
func (c *Canvas) FillRect(x, y, w, h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if math.IsNaN(x+y+w+h) || math.IsInf(x+y+w+h, 0) {
		return
	}

	x0, x1 := x, x+w
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := y, y+h
	if y1 < y0 {
		y0, y1 = y1, y0
	}

	// a singular transform maps the rectangle onto no pixels
	inv, ok := invert(c.state.m)
	if !ok {
		return
	}

	switch c.state.op {
	case domain.CompositeSourceIn:
		// source-in touches the whole canvas: uncovered pixels lose their content
		b := c.img.Bounds()
		for py := b.Min.Y; py < b.Max.Y; py++ {
			for px := b.Min.X; px < b.Max.X; px++ {
				ux, uy, inside := c.userPoint(inv, px, py, x0, y0, x1, y1)
				if !inside {
					c.img.SetRGBA(px, py, color.RGBA{})
					continue
				}
				dst := c.img.RGBAAt(px, py)
				c.img.SetRGBA(px, py, sourceIn(c.paint(ux, uy), dst.A))
			}
		}

	default:
		if x0 == x1 || y0 == y1 {
			return
		}
		r := c.deviceBounds(x0, y0, x1, y1)
		for py := r.Min.Y; py < r.Max.Y; py++ {
			for px := r.Min.X; px < r.Max.X; px++ {
				ux, uy, inside := c.userPoint(inv, px, py, x0, y0, x1, y1)
				if !inside {
					continue
				}
				dst := c.img.RGBAAt(px, py)
				c.img.SetRGBA(px, py, sourceOver(c.paint(ux, uy), dst))
			}
		}
	}
}

// userPoint maps the centre of device pixel (px, py) into user space and tests
// it against the half-open rectangle [x0,x1) x [y0,y1).
func (c *Canvas) userPoint(inv f64.Aff3, px, py int, x0, y0, x1, y1 float64) (float64, float64, bool) {
	dx := float64(px) + 0.5
	dy := float64(py) + 0.5
	ux := inv[0]*dx + inv[1]*dy + inv[2]
	uy := inv[3]*dx + inv[4]*dy + inv[5]
	return ux, uy, ux >= x0 && ux < x1 && uy >= y0 && uy < y1
}

// deviceBounds returns the pixel rectangle covering the transformed user rectangle.
func (c *Canvas) deviceBounds(x0, y0, x1, y1 float64) image.Rectangle {
	m := c.state.m
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}} {
		dx := m[0]*p[0] + m[1]*p[1] + m[2]
		dy := m[3]*p[0] + m[4]*p[1] + m[5]
		minX, maxX = math.Min(minX, dx), math.Max(maxX, dx)
		minY, maxY = math.Min(minY, dy), math.Max(maxY, dy)
	}
	r := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
	return r.Intersect(c.img.Bounds())
}

func (c *Canvas) paint(ux, uy float64) color.NRGBA {
	if c.state.gradient != nil {
		return c.state.gradient.ColorAt(ux, uy)
	}
	return c.state.fill
}

// Snapshot returns a copy of the pixels. During a frame it returns the last
// completed frame instead of the one being drawn.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src := c.img
	if c.inFrame {
		src = c.front
	}
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

// Pixel returns the non-premultiplied colour at (x, y) of the drawing buffer.
func (c *Canvas) Pixel(x, y int) color.NRGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return color.NRGBAModel.Convert(c.img.RGBAAt(x, y)).(color.NRGBA)
}

// mul returns the transform applying n first, then m.
func mul(m, n f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		m[0]*n[0] + m[1]*n[3], m[0]*n[1] + m[1]*n[4], m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3], m[3]*n[1] + m[4]*n[4], m[3]*n[2] + m[4]*n[5] + m[5],
	}
}

func invert(m f64.Aff3) (f64.Aff3, bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if det == 0 || math.IsNaN(det) {
		return f64.Aff3{}, false
	}
	return f64.Aff3{
		m[4] / det, -m[1] / det, (m[1]*m[5] - m[4]*m[2]) / det,
		-m[3] / det, m[0] / det, (m[3]*m[2] - m[0]*m[5]) / det,
	}, true
}

func premultiply(c color.NRGBA) (r, g, b, a uint32) {
	a = uint32(c.A)
	return uint32(c.R) * a / 255, uint32(c.G) * a / 255, uint32(c.B) * a / 255, a
}

func sourceOver(src color.NRGBA, dst color.RGBA) color.RGBA {
	r, g, b, a := premultiply(src)
	k := 255 - a
	return color.RGBA{
		R: uint8(r + uint32(dst.R)*k/255),
		G: uint8(g + uint32(dst.G)*k/255),
		B: uint8(b + uint32(dst.B)*k/255),
		A: uint8(a + uint32(dst.A)*k/255),
	}
}

func sourceIn(src color.NRGBA, dstA uint8) color.RGBA {
	r, g, b, a := premultiply(src)
	k := uint32(dstA)
	return color.RGBA{
		R: uint8(r * k / 255),
		G: uint8(g * k / 255),
		B: uint8(b * k / 255),
		A: uint8(a * k / 255),
	}
}
