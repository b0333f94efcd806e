// Package playout renders an in-memory clip into an output stream.
//
// Transport holds the clip, the play position and the gain. The output
// device pulls from it through Read, which converts the clip to the device
// sample rate and channel count on the fly.
package playout

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// BytesPerSample is the size of one float32 little-endian sample.
const BytesPerSample = 4

// Transport is a clip player driven by the output callback.
//
// Thread-safety: This implementation is thread-safe.
type Transport struct {
	outRate     int
	outChannels int

	clip   *domain.Clip
	pos    float64 // clip frames, fractional while resampling
	step   float64
	status domain.PlaybackStatus
	volume float64
	tap    ports.TapFunc
	mu     sync.Mutex

	// readBuf is only touched by Read, which the device calls from one goroutine.
	readBuf []float32
}

// NewTransport creates a transport that renders at outRate with outChannels
// interleaved channels.
func NewTransport(outRate, outChannels int) (*Transport, error) {
	if outRate <= 0 {
		return nil, domain.NewValidationError("outRate", outRate, "must be positive")
	}
	if outChannels <= 0 {
		return nil, domain.NewValidationError("outChannels", outChannels, "must be positive")
	}
	return &Transport{
		outRate:     outRate,
		outChannels: outChannels,
		volume:      1.0,
	}, nil
}

// Channels returns the output channel count.
func (t *Transport) Channels() int { return t.outChannels }

// SampleRate returns the output sample rate.
func (t *Transport) SampleRate() int { return t.outRate }

// Open makes clip current and leaves the transport stopped at zero.
func (t *Transport) Open(clip *domain.Clip) error {
	if clip == nil || clip.Frames() == 0 || clip.SampleRate <= 0 {
		return domain.ErrEmptyClip
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.clip = clip
	t.pos = 0
	t.step = float64(clip.SampleRate) / float64(t.outRate)
	t.status = domain.StatusStopped
	return nil
}

// Play starts playback at the current position, rewinding a finished clip.
func (t *Transport) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clip == nil {
		return domain.ErrNoClipLoaded
	}
	if t.pos >= float64(t.clip.Frames()) {
		t.pos = 0
	}
	t.status = domain.StatusPlaying
	return nil
}

// Pause halts playback and keeps the position.
func (t *Transport) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clip == nil {
		return domain.ErrNoClipLoaded
	}
	if t.status == domain.StatusPlaying {
		t.status = domain.StatusPaused
	}
	return nil
}

// Stop halts playback and rewinds.
func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clip == nil {
		return domain.ErrNoClipLoaded
	}
	t.status = domain.StatusStopped
	t.pos = 0
	return nil
}

// Seek moves the position within [0, Duration].
func (t *Transport) Seek(position time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.clip == nil {
		return domain.ErrNoClipLoaded
	}
	if position < 0 || position > t.clip.Duration() {
		return domain.ErrInvalidPosition
	}
	t.pos = position.Seconds() * float64(t.clip.SampleRate)
	return nil
}

// Status returns the playback status.
func (t *Transport) Status() domain.PlaybackStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Position returns the playback position.
func (t *Transport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clip == nil {
		return 0
	}
	return time.Duration(t.pos / float64(t.clip.SampleRate) * float64(time.Second))
}

// Duration returns the clip length, zero when nothing is open.
func (t *Transport) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clip.Duration()
}

// SetVolume sets the output gain.
func (t *Transport) SetVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = volume
	return nil
}

// Volume returns the output gain.
func (t *Transport) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// SetTap installs the observer called with every rendered block.
func (t *Transport) SetTap(fn ports.TapFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tap = fn
}

// Render fills out with interleaved output frames. Silence is written while
// not playing. The tap sees the block only when clip audio was rendered.
func (t *Transport) Render(out []float32) {
	t.mu.Lock()
	if t.status != domain.StatusPlaying || t.clip == nil {
		t.mu.Unlock()
		clear(out)
		return
	}

	frames := len(out) / t.outChannels
	last := t.clip.Frames() - 1
	gain := float32(t.volume)

	i := 0
	for ; i < frames; i++ {
		if t.pos > float64(last) {
			t.status = domain.StatusStopped
			t.pos = float64(last + 1)
			break
		}
		t.frameAt(out[i*t.outChannels:(i+1)*t.outChannels], gain)
		t.pos += t.step
	}
	clear(out[i*t.outChannels:])

	tap := t.tap
	channels := t.outChannels
	t.mu.Unlock()

	if tap != nil && i > 0 {
		tap(out[:i*channels], channels)
	}
}

// frameAt writes one output frame interpolated at t.pos. Caller holds t.mu.
func (t *Transport) frameAt(dst []float32, gain float32) {
	clip := t.clip
	in := clip.Channels
	last := clip.Frames() - 1

	i0 := int(t.pos)
	i1 := min(i0+1, last)
	frac := float32(t.pos - float64(i0))

	sample := func(ch int) float32 {
		a := clip.Samples[i0*in+ch]
		b := clip.Samples[i1*in+ch]
		return a + (b-a)*frac
	}

	if len(dst) == 1 && in > 1 {
		var sum float32
		for ch := 0; ch < in; ch++ {
			sum += sample(ch)
		}
		dst[0] = sum / float32(in) * gain
		return
	}
	for ch := range dst {
		dst[ch] = sample(min(ch, in-1)) * gain
	}
}

// Read implements io.Reader for output devices that pull float32
// little-endian bytes. It never returns an error.
func (t *Transport) Read(p []byte) (int, error) {
	frameBytes := t.outChannels * BytesPerSample
	n := len(p) / frameBytes * frameBytes
	if n == 0 {
		return 0, nil
	}

	if cap(t.readBuf) < n/BytesPerSample {
		t.readBuf = make([]float32, n/BytesPerSample)
	}
	samples := t.readBuf[:n/BytesPerSample]
	t.Render(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*BytesPerSample:], math.Float32bits(s))
	}
	return n, nil
}
