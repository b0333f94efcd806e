// Package mock provides a mock implementation of the AudioEngine interface.
// This is used for testing services and for running without an output device.
package mock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// Engine is a mock implementation of the AudioEngine interface.
// It keeps the transport state in memory. Nothing advances on its own:
// Pump plays the role of the audio callback.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	// Configuration
	initialized bool
	sampleRate  int

	// Clip state
	clip     *domain.Clip
	position int // frames
	status   domain.PlaybackStatus
	volume   float64
	tap      ports.TapFunc
	mu       sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failOpen       bool
	failPlay       bool
}

var _ ports.AudioEngine = (*Engine)(nil)

// NewEngine creates a new mock audio engine.
func NewEngine() *Engine {
	return &Engine{
		volume: 1.0,
		logger: slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger.With(slog.String("component", "mock-engine"))
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailOpen configures the mock to reject clips (for testing).
func (m *Engine) SetFailOpen(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Initialize initializes the mock audio engine.
func (m *Engine) Initialize(sampleRate int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "mock initialization failed", nil)
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}
	if sampleRate <= 0 {
		return domain.NewValidationError("sampleRate", sampleRate, "must be positive")
	}

	m.initialized = true
	m.sampleRate = sampleRate
	m.logger.Debug("mock engine initialized", slog.Int("sample_rate", sampleRate))
	return nil
}

// Shutdown shuts down the mock audio engine.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.clip = nil
	m.position = 0
	m.status = domain.StatusStopped
	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SampleRate returns the rate passed to Initialize.
func (m *Engine) SampleRate() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sampleRate
}

// Open makes clip current.
func (m *Engine) Open(clip *domain.Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}
	if m.failOpen {
		return domain.NewAudioEngineError("open", "mock open failed", nil)
	}
	if clip == nil || clip.Frames() == 0 {
		return domain.ErrEmptyClip
	}

	m.clip = clip
	m.position = 0
	m.status = domain.StatusStopped
	return nil
}

// Play starts playback at the current position, rewinding a finished clip.
func (m *Engine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}
	if m.clip == nil {
		return domain.ErrNoClipLoaded
	}
	if m.failPlay {
		return domain.NewAudioEngineError("play", "mock playback failed", nil)
	}

	if m.position >= m.clip.Frames() {
		m.position = 0
	}
	m.status = domain.StatusPlaying
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clip == nil {
		return domain.ErrNoClipLoaded
	}
	if m.status == domain.StatusPlaying {
		m.status = domain.StatusPaused
	}
	return nil
}

// Stop stops playback and rewinds.
func (m *Engine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clip == nil {
		return domain.ErrNoClipLoaded
	}
	m.status = domain.StatusStopped
	m.position = 0
	return nil
}

// Seek moves the playback position.
func (m *Engine) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clip == nil {
		return domain.ErrNoClipLoaded
	}
	if position < 0 || position > m.clip.Duration() {
		return domain.ErrInvalidPosition
	}

	m.position = int(int64(position) * int64(m.clip.SampleRate) / int64(time.Second))
	return nil
}

// Status returns the playback status.
func (m *Engine) Status() domain.PlaybackStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Position returns the playback position.
func (m *Engine) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.clip == nil {
		return 0
	}
	return time.Duration(m.position) * time.Second / time.Duration(m.clip.SampleRate)
}

// Duration returns the clip length.
func (m *Engine) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clip.Duration()
}

// SetVolume sets the output gain.
func (m *Engine) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 || volume != volume {
		return domain.ErrInvalidVolume
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	return nil
}

// Volume returns the output gain.
func (m *Engine) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// SetTap installs the audio callback observer.
func (m *Engine) SetTap(fn ports.TapFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tap = fn
}

// Pump simulates one audio callback of up to frames frames and returns how
// many were rendered. Reaching the end of the clip stops playback and leaves
// the position at the end.
func (m *Engine) Pump(frames int) int {
	m.mu.Lock()
	if m.status != domain.StatusPlaying || m.clip == nil || frames <= 0 {
		m.mu.Unlock()
		return 0
	}

	ch := m.clip.Channels
	remaining := m.clip.Frames() - m.position
	if frames > remaining {
		frames = remaining
	}

	block := make([]float32, frames*ch)
	src := m.clip.Samples[m.position*ch : (m.position+frames)*ch]
	gain := float32(m.volume)
	for i, s := range src {
		block[i] = s * gain
	}

	m.position += frames
	if m.position >= m.clip.Frames() {
		m.status = domain.StatusStopped
	}
	tap := m.tap
	m.mu.Unlock()

	if tap != nil {
		tap(block, ch)
	}
	return frames
}

// Advance pumps d worth of frames.
func (m *Engine) Advance(d time.Duration) int {
	m.mu.RLock()
	rate := 0
	if m.clip != nil {
		rate = m.clip.SampleRate
	}
	m.mu.RUnlock()

	return m.Pump(int(int64(d) * int64(rate) / int64(time.Second)))
}
