package widgets

import (
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFrame struct {
	img *image.RGBA
}

func (s staticFrame) Snapshot() *image.RGBA { return s.img }

func newFrame() staticFrame {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(3, 1, color.RGBA{B: 255, A: 255})
	return staticFrame{img: img}
}

func TestEqualizer_MinSize(t *testing.T) {
	test.NewApp()
	e := NewEqualizer(newFrame())

	assert.Equal(t, fyne.NewSize(4, 2), e.MinSize())
}

func TestEqualizer_DrawNativeSize(t *testing.T) {
	test.NewApp()
	frame := newFrame()
	e := NewEqualizer(frame)

	assert.Same(t, frame.img, e.draw(4, 2))
}

func TestEqualizer_DrawScaled(t *testing.T) {
	test.NewApp()
	e := NewEqualizer(newFrame())

	img := e.draw(8, 4)
	require.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())

	r, _, _, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	_, _, b, _ := img.At(7, 3).RGBA()
	assert.Equal(t, uint32(0xffff), b)
	_, _, _, a := img.At(4, 0).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestEqualizer_TapSeeks(t *testing.T) {
	test.NewApp()
	e := NewEqualizer(newFrame())
	e.Resize(fyne.NewSize(200, 50))

	var got []float64
	e.SetOnSeek(func(ratio float64) { got = append(got, ratio) })

	e.Tapped(&fyne.PointEvent{Position: fyne.NewPos(50, 10)})
	e.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(250, 10)}})
	e.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(-5, 10)}})

	assert.Equal(t, []float64{0.25, 1, 0}, got)
	assert.Equal(t, desktop.PointerCursor, e.Cursor())
}

func TestEqualizer_NoSeekHandler(t *testing.T) {
	test.NewApp()
	e := NewEqualizer(newFrame())
	e.Resize(fyne.NewSize(200, 50))

	e.Tapped(&fyne.PointEvent{Position: fyne.NewPos(50, 10)})

	assert.Equal(t, desktop.DefaultCursor, e.Cursor())
}
