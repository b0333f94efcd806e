// Package analysis turns rendered audio into the per-bin values the equalizer draws.
//
// Analyser keeps a sliding window of the most recent mono samples and reports
// either that window itself (waveform) or its smoothed, decibel-scaled
// magnitude spectrum normalised to [0,1].
package analysis

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
)

// Analyser limits and defaults.
const (
	MinFFTSize = 32
	MaxFFTSize = 32768

	DefaultFFTSize   = 256
	DefaultSmoothing = 0.8
	DefaultMinDB     = -100.0
	DefaultMaxDB     = -30.0
)

// Config holds the analyser parameters.
type Config struct {
	// FFTSize is the window length, a power of two in [MinFFTSize, MaxFFTSize]
	FFTSize int

	// Mode selects waveform or spectrum output
	Mode domain.AnalyserMode

	// Smoothing blends each spectrum with the previous one, in [0,1)
	Smoothing float64

	// MinDB and MaxDB map magnitudes onto [0,1]
	MinDB float64
	MaxDB float64
}

// DefaultConfig returns the analyser settings for a visualizer of size bins
// in the given mode.
func DefaultConfig(mode domain.AnalyserMode, bins int) Config {
	size := bins
	if mode == domain.ModeSpectrum {
		size = bins * 2
	}
	return Config{
		FFTSize:   size,
		Mode:      mode,
		Smoothing: DefaultSmoothing,
		MinDB:     DefaultMinDB,
		MaxDB:     DefaultMaxDB,
	}
}

// ParseMode parses "waveform" or "spectrum", ignoring case. Errors match
// domain.ErrInvalidArgument.
func ParseMode(s string) (domain.AnalyserMode, error) {
	switch m := domain.AnalyserMode(strings.ToLower(strings.TrimSpace(s))); m {
	case domain.ModeWaveform, domain.ModeSpectrum:
		return m, nil
	default:
		return "", domain.NewValidationError("mode", s, "must be waveform or spectrum")
	}
}

// Validate checks the parameters. Errors match domain.ErrInvalidArgument.
func (c Config) Validate() error {
	if c.FFTSize < MinFFTSize || c.FFTSize > MaxFFTSize || c.FFTSize&(c.FFTSize-1) != 0 {
		return domain.NewValidationError("fftSize", c.FFTSize,
			fmt.Sprintf("must be a power of two between %d and %d", MinFFTSize, MaxFFTSize))
	}
	switch c.Mode {
	case domain.ModeWaveform, domain.ModeSpectrum:
	default:
		return domain.NewValidationError("mode", c.Mode, "must be waveform or spectrum")
	}
	if math.IsNaN(c.Smoothing) || c.Smoothing < 0 || c.Smoothing >= 1 {
		return domain.NewValidationError("smoothing", c.Smoothing, "must be in [0,1)")
	}
	if !(c.MinDB < c.MaxDB) {
		return domain.NewValidationError("minDB", c.MinDB, "must be below maxDB")
	}
	return nil
}

// Analyser is a sliding-window signal analyser.
//
// Thread-safety: all methods are safe for concurrent use; the audio goroutine
// normally is the only caller.
type Analyser struct {
	cfg Config

	mu     sync.Mutex
	ring   []float64
	pos    int
	window []float64
	plan   *algofft.Plan[complex128]
	in     []complex128
	out    []complex128
	re     []float64
	im     []float64
	mags   []float64
	smooth []float64
}

// New creates an analyser.
func New(cfg Config) (*Analyser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Analyser{
		cfg:  cfg,
		ring: make([]float64, cfg.FFTSize),
	}

	if cfg.Mode == domain.ModeSpectrum {
		plan, err := algofft.NewPlan64(cfg.FFTSize)
		if err != nil {
			return nil, fmt.Errorf("analyser fft plan: %w", err)
		}
		a.plan = plan
		a.window = window.Generate(window.TypeHann, cfg.FFTSize, window.WithPeriodic())
		a.in = make([]complex128, cfg.FFTSize)
		a.out = make([]complex128, cfg.FFTSize)
		a.re = make([]float64, cfg.FFTSize/2)
		a.im = make([]float64, cfg.FFTSize/2)
		a.mags = make([]float64, cfg.FFTSize/2)
		a.smooth = make([]float64, cfg.FFTSize/2)
	}

	return a, nil
}

// Config returns the analyser parameters.
func (a *Analyser) Config() Config {
	return a.cfg
}

// Bins returns the length of the slice Read fills.
func (a *Analyser) Bins() int {
	if a.cfg.Mode == domain.ModeSpectrum {
		return a.cfg.FFTSize / 2
	}
	return a.cfg.FFTSize
}

// Push appends mono samples to the window, dropping the oldest.
func (a *Analyser) Push(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// only the newest FFTSize samples can survive
	if len(samples) > len(a.ring) {
		samples = samples[len(samples)-len(a.ring):]
	}
	for _, s := range samples {
		a.ring[a.pos] = float64(s)
		a.pos++
		if a.pos == len(a.ring) {
			a.pos = 0
		}
	}
}

// Read fills dst (length Bins) with the current analysis.
func (a *Analyser) Read(dst []float32) error {
	if len(dst) != a.Bins() {
		return domain.NewValidationError("dst", len(dst), "length must equal analyser bins")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cfg.Mode == domain.ModeWaveform {
		n := len(a.ring)
		for i := range dst {
			dst[i] = float32(a.ring[(a.pos+i)%n])
		}
		return nil
	}

	return a.readSpectrum(dst)
}

func (a *Analyser) readSpectrum(dst []float32) error {
	n := len(a.ring)
	for i := 0; i < n; i++ {
		a.in[i] = complex(a.ring[(a.pos+i)%n]*a.window[i], 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return fmt.Errorf("analyser forward fft: %w", err)
	}

	span := a.cfg.MaxDB - a.cfg.MinDB
	k := a.cfg.Smoothing

	for i, m := range a.magnitudes() {
		m /= float64(n)
		a.smooth[i] = k*a.smooth[i] + (1-k)*m

		db := math.Inf(-1)
		if a.smooth[i] > 0 {
			db = 20 * math.Log10(a.smooth[i])
		}
		v := (db - a.cfg.MinDB) / span
		dst[i] = float32(math.Min(1, math.Max(0, v)))
	}
	return nil
}

// magnitudes writes |X[k]| of the lower half of the last transform into the
// reused mags buffer.
func (a *Analyser) magnitudes() []float64 {
	for i, c := range a.out[:len(a.mags)] {
		a.re[i], a.im[i] = real(c), imag(c)
	}
	spectrum.MagnitudeFromParts(a.mags, a.re, a.im)
	return a.mags
}

// Reset zeroes the window and the smoothing state.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.ring)
	clear(a.smooth)
	a.pos = 0
}
