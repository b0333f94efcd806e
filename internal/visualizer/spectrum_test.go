package visualizer

import (
	"errors"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/audiolab/internal/adapter/clock"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/surface/raster"
	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/logger"
)

func newTestSpectrum(t *testing.T, cfg Config) (*Spectrum, *clock.Manual, *raster.Canvas) {
	t.Helper()
	w, h := cfg.CanvasSize()
	surface := raster.New(w, h)
	c := clock.NewManual()
	s, err := NewSpectrum(logger.NewTestLogger(), surface, c, cfg)
	require.NoError(t, err)
	return s, c, surface
}

func fill(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNewSpectrum_ZeroFilled(t *testing.T) {
	for _, size := range []int{1, 4, 256, 1024} {
		s, _, _ := newTestSpectrum(t, DefaultConfig(size))

		assert.Equal(t, size, s.Size())
		assert.Equal(t, make([]float32, size), s.Current())
		assert.Equal(t, make([]float32, size), s.Target())
		assert.Equal(t, domain.LoopStopped, s.State())
	}
}

func TestNewSpectrum_InvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"zero size", func(c *Config) { c.Size = 0 }, "size"},
		{"negative size", func(c *Config) { c.Size = -3 }, "size"},
		{"zero smoothing", func(c *Config) { c.Smoothing = 0 }, "smoothing"},
		{"smoothing above one", func(c *Config) { c.Smoothing = 1.01 }, "smoothing"},
		{"NaN smoothing", func(c *Config) { c.Smoothing = math.NaN() }, "smoothing"},
		{"negative interval", func(c *Config) { c.RefreshInterval = -1 }, "refreshInterval"},
		{"NaN interval", func(c *Config) { c.RefreshInterval = math.NaN() }, "refreshInterval"},
		{"negative bar scale", func(c *Config) { c.BarScale = -1 }, "barScale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(4)
			tt.mod(&cfg)

			s, err := NewSpectrum(logger.NewTestLogger(), raster.New(8, 100), clock.NewManual(), cfg)
			assert.Nil(t, s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNewSpectrum_Defaults(t *testing.T) {
	cfg := Config{Size: 2, Smoothing: 1}
	s, _, _ := newTestSpectrum(t, cfg)

	assert.Equal(t, float64(DefaultBarScale), s.Config().BarScale)
	assert.Equal(t, domain.DefaultPalette(), s.Config().Palette)
}

func TestSpectrum_WriteWrongLength(t *testing.T) {
	s, _, _ := newTestSpectrum(t, DefaultConfig(4))
	require.NoError(t, s.Write([]float32{1, 2, 3, 4}))

	err := s.Write([]float32{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, []float32{1, 2, 3, 4}, s.Target(), "rejected write leaves the buffer intact")

	assert.ErrorIs(t, s.Write(nil), domain.ErrInvalidArgument)
}

func TestSpectrum_WriteCopiesInput(t *testing.T) {
	s, _, _ := newTestSpectrum(t, DefaultConfig(2))

	in := []float32{0.1, 0.2}
	require.NoError(t, s.Write(in))
	in[0] = 9

	assert.Equal(t, []float32{0.1, 0.2}, s.Target())
}

func TestSpectrum_Scenario(t *testing.T) {
	s, _, _ := newTestSpectrum(t, Config{Size: 4, RefreshInterval: 100, Smoothing: 0.5})

	require.NoError(t, s.Write([]float32{1, 1, 1, 1}))

	s.OnFrame(150, 150)
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5}, s.Current())

	s.OnFrame(10, 160)
	assert.Equal(t, []float32{0.75, 0.75, 0.75, 0.75}, s.Current())
}

func TestSpectrum_ScenarioThroughLoop(t *testing.T) {
	s, c, _ := newTestSpectrum(t, Config{Size: 4, RefreshInterval: 100, Smoothing: 0.5})
	require.NoError(t, s.Write([]float32{1, 1, 1, 1}))

	s.Start()
	c.TickAt(150)
	c.TickAt(160)

	assert.Equal(t, []float32{0.75, 0.75, 0.75, 0.75}, s.Current())
	assert.Equal(t, uint64(2), s.Frames())
}

func TestSpectrum_ExactIntervalRefreshes(t *testing.T) {
	s, _, _ := newTestSpectrum(t, Config{Size: 1, RefreshInterval: 100, Smoothing: 1})
	require.NoError(t, s.Write([]float32{0.3}))

	s.OnFrame(100, 100)
	assert.Equal(t, []float32{0.3}, s.Current())
}

func TestSpectrum_Throttling(t *testing.T) {
	s, _, _ := newTestSpectrum(t, Config{Size: 2, RefreshInterval: 100, Smoothing: 1})

	s.OnFrame(100, 100)
	require.Equal(t, []float32{0, 0}, s.Current())

	// both writes land before the next refresh
	require.NoError(t, s.Write([]float32{1, 1}))
	s.OnFrame(40, 140)
	require.NoError(t, s.Write([]float32{0.25, 0.5}))
	assert.Equal(t, []float32{0, 0}, s.Current(), "no refresh before the interval elapses")

	s.OnFrame(60, 200)
	assert.Equal(t, []float32{0.25, 0.5}, s.Current(), "only the second write is ever shown")
}

func TestSpectrum_ZeroIntervalRefreshesEveryFrame(t *testing.T) {
	s, _, _ := newTestSpectrum(t, Config{Size: 1, Smoothing: 1})

	require.NoError(t, s.Write([]float32{0.2}))
	s.OnFrame(0, 0)
	assert.Equal(t, []float32{0.2}, s.Current())

	require.NoError(t, s.Write([]float32{0.4}))
	s.OnFrame(0, 0)
	assert.Equal(t, []float32{0.4}, s.Current())
}

func TestSpectrum_Convergence(t *testing.T) {
	for _, k := range []float64{0.01, 0.1, 0.5, 0.9, 1} {
		s, _, _ := newTestSpectrum(t, Config{Size: 3, RefreshInterval: 16, Smoothing: k})
		target := []float32{1, -0.5, 0.25}
		require.NoError(t, s.Write(target))

		prevDist := math.Inf(1)
		for frame := 0; frame < 3000; frame++ {
			s.OnFrame(16, float64(frame*16))

			cur := s.Current()
			dist := 0.0
			for i := range cur {
				dist += math.Abs(float64(target[i] - cur[i]))
			}
			require.LessOrEqual(t, dist, prevDist, "smoothing %v frame %d", k, frame)
			prevDist = dist
		}

		assert.InDeltaSlice(t, target, s.Current(), 1e-4, "smoothing %v", k)
	}
}

func TestSpectrum_StartStopIdempotent(t *testing.T) {
	s, c, _ := newTestSpectrum(t, DefaultConfig(4))

	s.Start()
	s.Start()
	assert.Equal(t, 1, c.Starts())
	assert.Equal(t, domain.LoopRunning, s.State())

	s.Stop()
	s.Stop()
	assert.Equal(t, domain.LoopStopped, s.State())
	assert.False(t, c.Running())
}

func TestSpectrum_WriteAndCursorWhileStopped(t *testing.T) {
	s, c, _ := newTestSpectrum(t, Config{Size: 1, Smoothing: 1})

	require.NoError(t, s.Write([]float32{0.5}))
	s.SetCursor(0.3)
	c.Advance(16)
	assert.Equal(t, []float32{0}, s.Current(), "stopped visualizer does not draw")

	s.Start()
	c.Advance(16)
	assert.Equal(t, []float32{0.5}, s.Current())
	assert.Equal(t, 0.3, s.Cursor())
}

func TestSpectrum_CursorUnclamped(t *testing.T) {
	s, _, _ := newTestSpectrum(t, DefaultConfig(1))

	for _, v := range []float64{-2, 0, 0.5, 1, 7.5} {
		s.SetCursor(v)
		assert.Equal(t, v, s.Cursor())
	}
}

func TestSpectrum_Reset(t *testing.T) {
	s, _, _ := newTestSpectrum(t, Config{Size: 2, Smoothing: 1})
	require.NoError(t, s.Write([]float32{1, 1}))
	s.OnFrame(1, 1)

	s.Reset()
	assert.Equal(t, []float32{0, 0}, s.Current())
	assert.Equal(t, []float32{0, 0}, s.Target())

	s.OnFrame(1, 2)
	assert.Equal(t, []float32{0, 0}, s.Current())
}

// Drawing tests sample pixels on the raster surface.

func fullBars(t *testing.T, cfg Config, cursor float64) *raster.Canvas {
	t.Helper()
	s, _, surface := newTestSpectrum(t, cfg)
	require.NoError(t, s.Write(fill(cfg.Size, 0.4)))
	s.SetCursor(cursor)
	s.OnFrame(cfg.RefreshInterval, cfg.RefreshInterval)
	return surface
}

func TestSpectrum_DrawsBarsAboveAxis(t *testing.T) {
	cfg := Config{Size: 4, Smoothing: 1, Palette: domain.DefaultPalette()}
	surface := fullBars(t, cfg, 0)

	// 0.4 * 100 = 40px up from y=50
	for i := 0; i < 4; i++ {
		x := i * BarPitch
		assert.NotZero(t, surface.Pixel(x, 49).A, "bar %d just above the axis", i)
		assert.NotZero(t, surface.Pixel(x, 10).A, "bar %d top", i)
		assert.Zero(t, surface.Pixel(x, 9).A, "bar %d above its top", i)
		assert.Zero(t, surface.Pixel(x, 50).A, "bar %d not mirrored", i)
		assert.Zero(t, surface.Pixel(x+1, 30).A, "gap after bar %d", i)
	}
}

func TestSpectrum_MirrorDrawsBelowAxis(t *testing.T) {
	cfg := Config{Size: 2, Smoothing: 1, Mirror: true}
	surface := fullBars(t, cfg, 0)

	assert.NotZero(t, surface.Pixel(0, 49).A)
	assert.NotZero(t, surface.Pixel(0, 50).A)
	assert.NotZero(t, surface.Pixel(0, 89).A)
	assert.Zero(t, surface.Pixel(0, 90).A)
}

func TestSpectrum_NegativeMagnitudeUsesAbsoluteValue(t *testing.T) {
	s, _, surface := newTestSpectrum(t, Config{Size: 1, Smoothing: 1})
	require.NoError(t, s.Write([]float32{-0.2}))
	s.OnFrame(0, 0)

	assert.NotZero(t, surface.Pixel(0, 30).A)
	assert.Zero(t, surface.Pixel(0, 29).A)
	assert.Zero(t, surface.Pixel(0, 50).A)
}

func TestSpectrum_GradientSplitsAtCursor(t *testing.T) {
	palette := domain.DefaultPalette()
	cfg := Config{Size: 8, Smoothing: 1, Palette: palette}
	surface := fullBars(t, cfg, 0.5)

	w, _ := cfg.CanvasSize()
	for i := 0; i < cfg.Size; i++ {
		x := i * BarPitch
		want := palette.Remaining
		if x < w/2 {
			want = palette.Played
		}
		assert.Equal(t, want, surface.Pixel(x, 40), "bar %d", i)
	}
}

func TestSpectrum_CursorOutOfRangeSingleColour(t *testing.T) {
	palette := domain.DefaultPalette()
	tests := []struct {
		cursor float64
		want   color.NRGBA
	}{
		{-0.5, palette.Remaining},
		{0, palette.Remaining},
		{1.5, palette.Played},
		{math.NaN(), palette.Remaining},
	}

	for _, tt := range tests {
		cfg := Config{Size: 4, Smoothing: 1, Palette: palette}
		surface := fullBars(t, cfg, tt.cursor)
		for i := 0; i < cfg.Size; i++ {
			assert.Equal(t, tt.want, surface.Pixel(i*BarPitch, 40), "cursor %v bar %d", tt.cursor, i)
		}
	}
}

func TestSpectrum_FrameLeavesSurfaceStateClean(t *testing.T) {
	s, _, surface := newTestSpectrum(t, Config{Size: 2, Smoothing: 1})
	s.OnFrame(0, 0)

	assert.Equal(t, [6]float64{1, 0, 0, 1, 0, 0}, surface.Transform())

	// source-over must be back in effect after the frame
	surface.Clear()
	surface.SetFillColor(color.NRGBA{R: 255, A: 255})
	surface.FillRect(0, 0, 1, 1)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, surface.Pixel(0, 0))
}

func TestSpectrum_ConcurrentWritesAndFrames(t *testing.T) {
	s, c, _ := newTestSpectrum(t, Config{Size: 64, RefreshInterval: 1, Smoothing: 0.3})
	s.Start()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = s.Write(fill(64, float32(i%10)/10))
			s.SetCursor(float64(i) / 500)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Advance(2)
			_ = s.Current()
		}
	}()
	wg.Wait()
	s.Stop()

	for _, v := range s.Current() {
		assert.False(t, math.IsNaN(float64(v)))
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}
