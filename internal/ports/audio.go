// Package ports define interfaces for dependency inversion.
// These interfaces allow the core logic to remain independent of external frameworks.
package ports

import (
	"context"
	"time"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
)

// TapFunc receives every block of interleaved samples the engine renders.
// It runs on the audio goroutine and must return quickly.
type TapFunc func(block []float32, channels int)

// AudioEngine is the interface for audio playback engines.
// This abstracts the output library (oto) and allows for testing with mocks.
//
// One engine plays one clip at a time. Implementations must be thread-safe as
// they are called from the UI, the playback service's cursor goroutine and the
// audio goroutine.
type AudioEngine interface {
	// Lifecycle methods

	// Initialize opens the output device at the given sample rate.
	// Returns domain.ErrAlreadyInitialized when called twice.
	Initialize(sampleRate int) error

	// Shutdown stops playback and releases the output device.
	Shutdown() error

	// IsInitialized returns true if the engine has been successfully initialized.
	IsInitialized() bool

	// Open makes clip the current clip, stopping whatever was playing.
	// The position is reset to zero and the engine is left stopped.
	Open(clip *domain.Clip) error

	// Playback control methods

	// Play starts playback at the current position.
	// Returns domain.ErrNoClipLoaded when nothing has been opened.
	Play() error

	// Pause halts playback and keeps the position.
	Pause() error

	// Stop halts playback and rewinds to zero.
	Stop() error

	// Seek moves the playback position. It must be within [0, Duration].
	Seek(position time.Duration) error

	// State query methods

	// Status returns the current playback status.
	Status() domain.PlaybackStatus

	// Position returns the current playback position.
	Position() time.Duration

	// Duration returns the length of the open clip, zero when none is open.
	Duration() time.Duration

	// Volume control methods

	// SetVolume sets the output gain from 0.0 (silent) to 1.0 (full volume).
	SetVolume(volume float64) error

	// Volume returns the current output gain.
	Volume() float64

	// SetTap installs fn as the audio callback observer. Nil removes it.
	SetTap(fn TapFunc)
}

// AssetLoader fetches raw audio files.
//
// A load is a single best-effort attempt; failures are returned as
// *domain.AssetError, which matches domain.ErrTransientIO. Nothing retries.
type AssetLoader interface {
	Load(ctx context.Context, location string) (*domain.Asset, error)
}

// Decoder turns a fetched asset into PCM.
// Returns domain.ErrUnsupportedFormat for formats it does not know.
type Decoder interface {
	Decode(asset *domain.Asset) (*domain.Clip, error)
}
