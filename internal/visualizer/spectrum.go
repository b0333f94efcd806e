// Package visualizer draws the equalizer: a bar graph of per-bin magnitudes that
// eases toward the latest analyser output and is tinted by playback progress.
package visualizer

import (
	"image/color"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
	"github.com/tejashwikalptaru/audiolab/internal/renderloop"
)

// Layout constants.
const (
	// DefaultBarScale converts a magnitude of 1.0 into a bar height in pixels
	DefaultBarScale = 100

	// DefaultHeight is the canvas height the demos use
	DefaultHeight = 100

	// BarPitch is the horizontal distance between bars (1px bar, 1px gap)
	BarPitch = 2
)

// Config holds the construction parameters of a Spectrum.
type Config struct {
	// Size is the number of bins
	Size int

	// RefreshInterval is the render time in ms that must accumulate before a
	// newly written frame becomes the smoothing target
	RefreshInterval float64

	// Smoothing is the fraction of the remaining distance covered per frame, in (0,1]
	Smoothing float64

	// Mirror draws every bar a second time below the centre axis
	Mirror bool

	// BarScale is the height in pixels of a magnitude of 1.0; zero means DefaultBarScale
	BarScale float64

	// Palette tints the bars; the zero value means domain.DefaultPalette
	Palette domain.Palette
}

// DefaultConfig returns the settings every demo page uses, for size bins.
func DefaultConfig(size int) Config {
	return Config{
		Size:            size,
		RefreshInterval: 100,
		Smoothing:       0.1,
		Mirror:          true,
		BarScale:        DefaultBarScale,
		Palette:         domain.DefaultPalette(),
	}
}

// ConfigFromSettings converts the settings stored in a demo description.
func ConfigFromSettings(s domain.VisualizerSettings) Config {
	cfg := DefaultConfig(s.Size)
	cfg.RefreshInterval = s.RefreshInterval
	cfg.Smoothing = s.Smoothing
	cfg.Mirror = s.Mirror
	return cfg
}

// Validate checks the parameters. Errors match domain.ErrInvalidArgument.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return domain.NewValidationError("size", c.Size, "must be greater than zero")
	}
	if math.IsNaN(c.Smoothing) || c.Smoothing <= 0 || c.Smoothing > 1 {
		return domain.NewValidationError("smoothing", c.Smoothing, "must be in (0,1]")
	}
	if math.IsNaN(c.RefreshInterval) || c.RefreshInterval < 0 {
		return domain.NewValidationError("refreshInterval", c.RefreshInterval, "must not be negative")
	}
	if math.IsNaN(c.BarScale) || c.BarScale < 0 {
		return domain.NewValidationError("barScale", c.BarScale, "must not be negative")
	}
	return nil
}

// CanvasSize returns the surface size that fits every bar.
func (c Config) CanvasSize() (int, int) {
	return c.Size * BarPitch, DefaultHeight
}

// Spectrum is the equalizer visualizer.
//
// Write is called from the audio goroutine and publishes an immutable copy of
// the samples; frames run on the clock goroutine and read the latest copy with
// a single atomic load, so the two sides never share a mutable slice.
type Spectrum struct {
	logger  *slog.Logger
	surface ports.Surface
	loop    *renderloop.Loop
	cfg     Config

	// latest is the most recent Write, replaced wholesale
	latest atomic.Pointer[[]float32]

	// cursor holds float64 bits
	cursor atomic.Uint64

	mu      sync.Mutex
	current []float32
	adopted []float32
	elapsed float64
}

var (
	_ ports.SampleSink = (*Spectrum)(nil)
	_ ports.CursorSink = (*Spectrum)(nil)
)

// NewSpectrum creates a stopped visualizer drawing onto surface on every tick of clock.
func NewSpectrum(logger *slog.Logger, surface ports.Surface, clock ports.FrameClock, cfg Config) (*Spectrum, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BarScale == 0 {
		cfg.BarScale = DefaultBarScale
	}
	if cfg.Palette == (domain.Palette{}) {
		cfg.Palette = domain.DefaultPalette()
	}

	s := &Spectrum{
		logger:  logger.With(slog.String("component", "spectrum")),
		surface: surface,
		cfg:     cfg,
		current: make([]float32, cfg.Size),
		adopted: make([]float32, cfg.Size),
	}
	zero := make([]float32, cfg.Size)
	s.latest.Store(&zero)

	s.loop = renderloop.New(logger, clock, surface)
	s.loop.SetOnFrame(s.OnFrame)

	s.logger.Debug("spectrum created",
		slog.Int("size", cfg.Size),
		slog.Float64("refresh_ms", cfg.RefreshInterval),
		slog.Float64("smoothing", cfg.Smoothing),
		slog.Bool("mirror", cfg.Mirror))

	return s, nil
}

// Size returns the number of bins.
func (s *Spectrum) Size() int {
	return s.cfg.Size
}

// Config returns the effective configuration.
func (s *Spectrum) Config() Config {
	return s.cfg
}

// Write replaces the pending magnitudes. len(samples) must equal Size.
// Only the last Write before a refresh is ever drawn.
func (s *Spectrum) Write(samples []float32) error {
	if len(samples) != s.cfg.Size {
		return domain.NewValidationError("samples", len(samples), "length must equal visualizer size")
	}
	snap := make([]float32, len(samples))
	copy(snap, samples)
	s.latest.Store(&snap)
	return nil
}

// SetCursor sets the normalised playback position. Values outside [0,1] are
// kept as given; they tint every bar with a single colour.
func (s *Spectrum) SetCursor(position float64) {
	s.cursor.Store(math.Float64bits(position))
}

// Cursor returns the playback position last set.
func (s *Spectrum) Cursor() float64 {
	return math.Float64frombits(s.cursor.Load())
}

// Start begins drawing. Starting twice is harmless.
func (s *Spectrum) Start() {
	s.loop.Start()
}

// Stop stops drawing. Written data is kept for the next Start.
func (s *Spectrum) Stop() {
	s.loop.Stop()
}

// State returns the state of the underlying render loop.
func (s *Spectrum) State() domain.LoopState {
	return s.loop.State()
}

// Frames returns how many frames have been drawn.
func (s *Spectrum) Frames() uint64 {
	return s.loop.Frames()
}

// Current returns a copy of the displayed magnitudes.
func (s *Spectrum) Current() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float32, len(s.current))
	copy(out, s.current)
	return out
}

// Target returns a copy of the most recently written magnitudes.
func (s *Spectrum) Target() []float32 {
	snap := *s.latest.Load()
	out := make([]float32, len(snap))
	copy(out, snap)
	return out
}

// Reset zeroes every buffer, used when a new clip is loaded.
func (s *Spectrum) Reset() {
	zero := make([]float32, s.cfg.Size)
	s.latest.Store(&zero)

	s.mu.Lock()
	clear(s.current)
	s.adopted = make([]float32, s.cfg.Size)
	s.elapsed = 0
	s.mu.Unlock()
}

// OnFrame advances the smoothing by one step and draws the bars.
// It is the render loop callback and may also be driven directly.
func (s *Spectrum) OnFrame(deltaMs, _ float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.elapsed += deltaMs
	if s.elapsed >= s.cfg.RefreshInterval {
		s.elapsed = 0
		// snapshots are never mutated after Store, so no copy is needed
		s.adopted = *s.latest.Load()
	}

	w, h := s.surface.Size()
	mid := float64(h) / 2
	k := float32(s.cfg.Smoothing)

	s.surface.Save()
	defer s.surface.Restore()

	s.surface.SetFillColor(color.NRGBA{A: 255})
	for i := range s.current {
		s.current[i] += (s.adopted[i] - s.current[i]) * k

		x := float64(i * BarPitch)
		height := math.Abs(float64(s.current[i])) * s.cfg.BarScale

		s.surface.Translate(0, mid)
		if s.cfg.Mirror {
			s.surface.FillRect(x, 0, 1, height)
		}
		s.surface.Scale(1, -1)
		s.surface.FillRect(x, 0, 1, height)
		s.surface.SetTransform(1, 0, 0, 1, 0, 0)
	}

	s.surface.SetCompositeOp(domain.CompositeSourceIn)
	s.surface.SetFillGradient(s.gradient(float64(w)))
	s.surface.FillRect(0, 0, float64(w), float64(h))
}

// gradient builds the hard-edged two colour split at the cursor.
func (s *Spectrum) gradient(width float64) domain.LinearGradient {
	cursor := s.Cursor()
	g := domain.NewLinearGradient(0, 0, width, 0)
	g.AddColorStop(0, s.cfg.Palette.Played)
	g.AddColorStop(cursor, s.cfg.Palette.Played)
	g.AddColorStop(cursor, s.cfg.Palette.Remaining)
	g.AddColorStop(1, s.cfg.Palette.Remaining)
	return g
}
