// Package domain contains core models and logic with no external dependencies.
// This package defines the fundamental entities of the audiolab demos.
package domain

import (
	"time"
)

// Asset is a raw audio file fetched from disk or over HTTP.
// It has not been decoded yet.
type Asset struct {
	// Location is the path or URL the asset was loaded from
	Location string

	// Format is the detected container format ("wav", "aiff", "mp3", "ogg")
	Format string

	// Data is the complete file content
	Data []byte

	// Title is the song title (from tags or the file name)
	Title string

	// Artist is the performing artist name (may be empty)
	Artist string

	// Album is the album name (may be empty)
	Album string
}

// DisplayName returns "Artist - Title" when an artist is known, else the title.
func (a Asset) DisplayName() string {
	if a.Artist != "" {
		return a.Artist + " - " + a.Title
	}
	return a.Title
}

// Clip is decoded PCM audio held fully in memory.
type Clip struct {
	// Title is carried over from the asset
	Title string

	// SampleRate of the PCM data in Hz
	SampleRate int

	// Channels count (1=mono, 2=stereo)
	Channels int

	// Samples are interleaved float32 values in [-1,1]
	Samples []float32
}

// Frames returns the number of sample frames in the clip.
func (c *Clip) Frames() int {
	if c == nil || c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// PlaybackState represents the current state of the transport.
type PlaybackState struct {
	// Clip is the currently loaded clip (nil if none)
	Clip *Clip

	// Status is the current playback status
	Status PlaybackStatus

	// Position is the current playback position within the clip
	Position time.Duration

	// Duration is the clip length
	Duration time.Duration

	// Volume is the current volume level (0.0 to 1.0)
	Volume float64
}

// Progress returns the normalised playback position, 0 when nothing is loaded.
func (s PlaybackState) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Duration)
}

// PlaybackStatus represents the current playback state.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// LoopState is the tagged state of a render loop.
type LoopState int32

const (
	// LoopStopped means no frames are being requested
	LoopStopped LoopState = iota

	// LoopRunning means every frame tick invokes the frame callback
	LoopRunning
)

// String returns a human-readable representation of the loop state.
func (s LoopState) String() string {
	switch s {
	case LoopStopped:
		return "stopped"
	case LoopRunning:
		return "running"
	default:
		return "unknown"
	}
}

// AnalyserMode selects what an analyser writes into the visualizer.
type AnalyserMode string

const (
	// ModeWaveform writes the latest time-domain samples
	ModeWaveform AnalyserMode = "waveform"

	// ModeSpectrum writes normalised frequency magnitudes
	ModeSpectrum AnalyserMode = "spectrum"
)

// SourceKind tells how a demo gets its audio.
type SourceKind string

const (
	// SourceFile plays a decoded asset through the audio engine
	SourceFile SourceKind = "file"

	// SourceStream analyses a raw PCM stream without playing it
	SourceStream SourceKind = "stream"
)

// Control names a transport control a demo exposes.
type Control string

// Transport controls used by the demos.
const (
	ControlPlay   Control = "play"
	ControlResume Control = "resume"
	ControlPause  Control = "pause"
	ControlStop   Control = "stop"
	ControlVolume Control = "volume"
	ControlSeek   Control = "seek"
)

// VisualizerSettings are the construction parameters of an equalizer.
type VisualizerSettings struct {
	// Size is the number of bins (bar columns)
	Size int

	// RefreshInterval is the minimum render time between target snapshots, in ms
	RefreshInterval float64

	// Smoothing is the per-frame convergence factor in (0,1]
	Smoothing float64

	// Mirror draws each bar above and below the centre axis
	Mirror bool
}

// Example describes one demo page.
type Example struct {
	// Name is the catalogue key (e.g. "buffer-source")
	Name string

	// Title is the human readable name
	Title string

	// Description explains what the demo shows
	Description string

	// Source tells where the audio comes from
	Source SourceKind

	// Analyser selects the data written into the visualizer
	Analyser AnalyserMode

	// Visualizer holds the equalizer parameters
	Visualizer VisualizerSettings

	// Controls lists the transport controls the demo shows
	Controls []Control

	// ShowCursor ties the gradient split to the playback position
	ShowCursor bool

	// Autoplay starts playback as soon as a clip is loaded
	Autoplay bool
}

// HasControl reports whether the demo exposes the given control.
func (e Example) HasControl(c Control) bool {
	for _, have := range e.Controls {
		if have == c {
			return true
		}
	}
	return false
}

// Preferences contain user preferences and settings.
type Preferences struct {
	// Volume is the saved volume level (0.0 to 1.0)
	Volume float64

	// LastExample is the demo selected in the previous session
	LastExample string

	// LastAsset is the path or URL opened in the previous session
	LastAsset string
}
