package domain

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CompositeOp selects how a fill is blended with pixels already on a surface.
type CompositeOp int

const (
	// CompositeSourceOver paints the source on top of the destination
	CompositeSourceOver CompositeOp = iota

	// CompositeSourceIn keeps the source only where the destination is opaque,
	// scaled by destination alpha; everything else becomes transparent.
	CompositeSourceIn
)

// String returns the canvas-style name of the operation.
func (op CompositeOp) String() string {
	switch op {
	case CompositeSourceOver:
		return "source-over"
	case CompositeSourceIn:
		return "source-in"
	default:
		return "unknown"
	}
}

// ColorStop is one stop of a gradient.
type ColorStop struct {
	Offset float64
	Color  color.NRGBA
}

// LinearGradient is a gradient along the line (X0,Y0)-(X1,Y1) in user space.
// Stops are kept sorted by offset; stops sharing an offset keep insertion order,
// which produces a hard edge at that offset.
type LinearGradient struct {
	X0, Y0 float64
	X1, Y1 float64
	Stops  []ColorStop
}

// NewLinearGradient creates a gradient without stops.
func NewLinearGradient(x0, y0, x1, y1 float64) LinearGradient {
	return LinearGradient{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// AddColorStop inserts a stop. Offsets are clamped to [0,1] and NaN becomes 0,
// so an out-of-range split collapses into a single colour instead of failing.
func (g *LinearGradient) AddColorStop(offset float64, c color.NRGBA) {
	switch {
	case math.IsNaN(offset):
		offset = 0
	case offset < 0:
		offset = 0
	case offset > 1:
		offset = 1
	}

	idx := sort.Search(len(g.Stops), func(i int) bool {
		return g.Stops[i].Offset > offset
	})
	g.Stops = append(g.Stops, ColorStop{})
	copy(g.Stops[idx+1:], g.Stops[idx:])
	g.Stops[idx] = ColorStop{Offset: offset, Color: c}
}

// ColorAt returns the gradient colour at user-space point (x, y).
func (g LinearGradient) ColorAt(x, y float64) color.NRGBA {
	if len(g.Stops) == 0 {
		return color.NRGBA{}
	}

	dx := g.X1 - g.X0
	dy := g.Y1 - g.Y0
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return g.Stops[len(g.Stops)-1].Color
	}

	t := ((x-g.X0)*dx + (y-g.Y0)*dy) / lenSq
	return g.colorAtOffset(t)
}

func (g LinearGradient) colorAtOffset(t float64) color.NRGBA {
	first := g.Stops[0]
	if t < first.Offset {
		return first.Color
	}

	// last stop with offset <= t
	j := sort.Search(len(g.Stops), func(i int) bool {
		return g.Stops[i].Offset > t
	}) - 1

	if j >= len(g.Stops)-1 {
		return g.Stops[len(g.Stops)-1].Color
	}

	a := g.Stops[j]
	b := g.Stops[j+1]
	f := (t - a.Offset) / (b.Offset - a.Offset)
	return lerpColor(a.Color, b.Color, f)
}

func lerpColor(a, b color.NRGBA, f float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return color.NRGBA{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: mix(a.A, b.A),
	}
}

// ParseHexColor parses "#rgb" or "#rrggbb" into an opaque colour.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, NewValidationError("color", s, "expected #rgb or #rrggbb")
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse color %q: %w", s, NewValidationError("color", s, err.Error()))
	}

	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// MustParseHexColor is ParseHexColor for compile-time constants.
func MustParseHexColor(s string) color.NRGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Palette holds the two gradient colours of the equalizer.
type Palette struct {
	// Played tints bars left of the cursor
	Played color.NRGBA

	// Remaining tints bars right of the cursor
	Remaining color.NRGBA
}

// DefaultPalette is the lime/navy pair used by every demo page.
func DefaultPalette() Palette {
	return Palette{
		Played:    MustParseHexColor("#9fe705"),
		Remaining: MustParseHexColor("#1c1c69"),
	}
}
