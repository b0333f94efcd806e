// Package speaker implements the AudioEngine interface on top of oto.
//
// The device player is started once at Initialize and pulls from a
// playout.Transport for the lifetime of the engine. Transport calls only
// change what the transport renders; while nothing plays it yields silence.
package speaker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/tejashwikalptaru/audiolab/internal/adapter/audio/playout"
	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// OutputChannels is the channel count the device is opened with.
const OutputChannels = 2

// oto allows a single context per process. It outlives engines so that a
// restarted engine can reuse it.
var (
	deviceMu   sync.Mutex
	device     *oto.Context
	deviceRate int
)

func openDevice(sampleRate int) (*oto.Context, error) {
	deviceMu.Lock()
	defer deviceMu.Unlock()

	if device != nil {
		if deviceRate != sampleRate {
			return nil, domain.NewAudioEngineError("initialize", "output device already opened at a different sample rate", nil)
		}
		if err := device.Resume(); err != nil {
			return nil, domain.NewAudioEngineError("initialize", "failed to resume output device", err)
		}
		return device, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: OutputChannels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, domain.NewAudioEngineError("initialize", "failed to open output device", err)
	}
	<-ready

	device = ctx
	deviceRate = sampleRate
	return device, nil
}

// Engine plays clips through the system audio device.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger

	mu        sync.RWMutex
	ctx       *oto.Context
	player    *oto.Player
	transport *playout.Transport
	tap       ports.TapFunc
	volume    float64
}

var _ ports.AudioEngine = (*Engine)(nil)

// NewEngine creates an engine. Initialize must be called before use.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger: logger.With(slog.String("component", "speaker-engine")),
		volume: 1.0,
	}
}

// Initialize opens the output device.
func (e *Engine) Initialize(sampleRate int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transport != nil {
		return domain.ErrAlreadyInitialized
	}

	transport, err := playout.NewTransport(sampleRate, OutputChannels)
	if err != nil {
		return err
	}
	_ = transport.SetVolume(e.volume)
	transport.SetTap(e.tap)

	ctx, err := openDevice(sampleRate)
	if err != nil {
		return err
	}

	e.ctx = ctx
	e.transport = transport
	e.player = ctx.NewPlayer(transport)
	e.player.Play()

	e.logger.Info("output device opened",
		slog.Int("sample_rate", sampleRate),
		slog.Int("channels", OutputChannels))
	return nil
}

// Shutdown closes the device player and suspends the device.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transport == nil {
		return domain.ErrNotInitialized
	}

	_ = e.transport.Stop()
	if err := e.player.Close(); err != nil {
		e.logger.Warn("failed to close player", slog.String("error", err.Error()))
	}
	if err := e.ctx.Suspend(); err != nil {
		e.logger.Warn("failed to suspend output device", slog.String("error", err.Error()))
	}

	e.player = nil
	e.transport = nil
	e.logger.Info("output device closed")
	return nil
}

// IsInitialized returns true if the device is open.
func (e *Engine) IsInitialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.transport != nil
}

func (e *Engine) current() (*playout.Transport, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.transport == nil {
		return nil, domain.ErrNotInitialized
	}
	return e.transport, nil
}

// Open makes clip current.
func (e *Engine) Open(clip *domain.Clip) error {
	t, err := e.current()
	if err != nil {
		return err
	}
	if err := t.Open(clip); err != nil {
		return err
	}
	e.logger.Debug("clip opened",
		slog.String("title", clip.Title),
		slog.Int("sample_rate", clip.SampleRate),
		slog.Int("channels", clip.Channels),
		slog.Duration("duration", clip.Duration()))
	return nil
}

// Play starts playback.
func (e *Engine) Play() error {
	t, err := e.current()
	if err != nil {
		return err
	}
	return t.Play()
}

// Pause pauses playback.
func (e *Engine) Pause() error {
	t, err := e.current()
	if err != nil {
		return err
	}
	return t.Pause()
}

// Stop stops playback and rewinds.
func (e *Engine) Stop() error {
	t, err := e.current()
	if err != nil {
		return err
	}
	return t.Stop()
}

// Seek moves the playback position.
func (e *Engine) Seek(position time.Duration) error {
	t, err := e.current()
	if err != nil {
		return err
	}
	return t.Seek(position)
}

// Status returns the playback status.
func (e *Engine) Status() domain.PlaybackStatus {
	t, err := e.current()
	if err != nil {
		return domain.StatusStopped
	}
	return t.Status()
}

// Position returns the playback position.
func (e *Engine) Position() time.Duration {
	t, err := e.current()
	if err != nil {
		return 0
	}
	return t.Position()
}

// Duration returns the clip length.
func (e *Engine) Duration() time.Duration {
	t, err := e.current()
	if err != nil {
		return 0
	}
	return t.Duration()
}

// SetVolume sets the output gain. It is kept across Shutdown.
func (e *Engine) SetVolume(volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transport != nil {
		if err := e.transport.SetVolume(volume); err != nil {
			return err
		}
	} else if volume < 0 || volume > 1 || volume != volume {
		return domain.ErrInvalidVolume
	}
	e.volume = volume
	return nil
}

// Volume returns the output gain.
func (e *Engine) Volume() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.volume
}

// SetTap installs the audio callback observer. It is kept across Shutdown.
func (e *Engine) SetTap(fn ports.TapFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tap = fn
	if e.transport != nil {
		e.transport.SetTap(fn)
	}
}
