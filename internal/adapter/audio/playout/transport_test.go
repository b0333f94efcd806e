package playout

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
)

func monoClip(rate int, samples ...float32) *domain.Clip {
	return &domain.Clip{Title: "clip", SampleRate: rate, Channels: 1, Samples: samples}
}

func TestNewTransport_Validates(t *testing.T) {
	_, err := NewTransport(0, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = NewTransport(48000, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	tr, err := NewTransport(48000, 2)
	require.NoError(t, err)
	assert.Equal(t, 48000, tr.SampleRate())
	assert.Equal(t, 2, tr.Channels())
	assert.Equal(t, 1.0, tr.Volume())
}

func TestTransport_SilentUntilPlaying(t *testing.T) {
	tr, _ := NewTransport(4, 1)
	require.NoError(t, tr.Open(monoClip(4, 1, 1, 1, 1)))

	out := []float32{9, 9}
	tr.Render(out)
	assert.Equal(t, []float32{0, 0}, out)
	assert.Zero(t, tr.Position())
}

func TestTransport_MonoToStereo(t *testing.T) {
	tr, _ := NewTransport(4, 2)
	require.NoError(t, tr.Open(monoClip(4, 0.1, 0.2, 0.3, 0.4)))
	require.NoError(t, tr.Play())

	var tapped []float32
	var tappedChannels int
	tr.SetTap(func(block []float32, channels int) {
		tapped = append(tapped, block...)
		tappedChannels = channels
	})

	out := make([]float32, 4)
	tr.Render(out)
	assert.Equal(t, []float32{0.1, 0.1, 0.2, 0.2}, out)
	assert.Equal(t, out, tapped)
	assert.Equal(t, 2, tappedChannels)
	assert.Equal(t, 500*time.Millisecond, tr.Position())
}

func TestTransport_StereoToMono(t *testing.T) {
	tr, _ := NewTransport(2, 1)
	clip := &domain.Clip{SampleRate: 2, Channels: 2, Samples: []float32{1, 0, 0.5, 0.5}}
	require.NoError(t, tr.Open(clip))
	require.NoError(t, tr.Play())

	out := make([]float32, 2)
	tr.Render(out)
	assert.Equal(t, []float32{0.5, 0.5}, out)
}

func TestTransport_Upsamples(t *testing.T) {
	tr, _ := NewTransport(8, 1)
	require.NoError(t, tr.Open(monoClip(4, 0, 1, 0, 1)))
	require.NoError(t, tr.Play())

	out := make([]float32, 4)
	tr.Render(out)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5}, toF64(out), 1e-6)
	assert.Equal(t, 500*time.Millisecond, tr.Position())
}

func TestTransport_EndStopsAndPads(t *testing.T) {
	tr, _ := NewTransport(4, 1)
	require.NoError(t, tr.Open(monoClip(4, 0.1, 0.2, 0.3, 0.4)))
	require.NoError(t, tr.Seek(500*time.Millisecond))
	require.NoError(t, tr.Play())

	frames := 0
	tr.SetTap(func(block []float32, _ int) { frames += len(block) })

	out := []float32{9, 9, 9, 9}
	tr.Render(out)
	assert.InDeltaSlice(t, []float64{0.3, 0.4, 0, 0}, toF64(out), 1e-6)
	assert.Equal(t, 2, frames, "tap sees only rendered frames")
	assert.Equal(t, domain.StatusStopped, tr.Status())
	assert.Equal(t, time.Second, tr.Position())

	require.NoError(t, tr.Play())
	assert.Zero(t, tr.Position(), "replay after the end rewinds")
}

func TestTransport_Volume(t *testing.T) {
	tr, _ := NewTransport(4, 1)
	require.NoError(t, tr.Open(monoClip(4, 1, 1, 1, 1)))
	require.NoError(t, tr.Play())

	assert.ErrorIs(t, tr.SetVolume(1.01), domain.ErrInvalidVolume)
	assert.ErrorIs(t, tr.SetVolume(math.NaN()), domain.ErrInvalidVolume)
	require.NoError(t, tr.SetVolume(0.25))

	out := make([]float32, 1)
	tr.Render(out)
	assert.Equal(t, float32(0.25), out[0])
}

func TestTransport_TransportErrors(t *testing.T) {
	tr, _ := NewTransport(4, 1)

	assert.ErrorIs(t, tr.Play(), domain.ErrNoClipLoaded)
	assert.ErrorIs(t, tr.Pause(), domain.ErrNoClipLoaded)
	assert.ErrorIs(t, tr.Stop(), domain.ErrNoClipLoaded)
	assert.ErrorIs(t, tr.Seek(0), domain.ErrNoClipLoaded)
	assert.ErrorIs(t, tr.Open(nil), domain.ErrEmptyClip)
	assert.Zero(t, tr.Duration())

	require.NoError(t, tr.Open(monoClip(4, 1, 1, 1, 1)))
	assert.ErrorIs(t, tr.Seek(2*time.Second), domain.ErrInvalidPosition)
	assert.ErrorIs(t, tr.Seek(-1), domain.ErrInvalidPosition)
	assert.Equal(t, time.Second, tr.Duration())
}

func TestTransport_PauseStop(t *testing.T) {
	tr, _ := NewTransport(4, 1)
	require.NoError(t, tr.Open(monoClip(4, 1, 1, 1, 1)))
	require.NoError(t, tr.Play())
	tr.Render(make([]float32, 2))

	require.NoError(t, tr.Pause())
	assert.Equal(t, domain.StatusPaused, tr.Status())
	assert.Equal(t, 500*time.Millisecond, tr.Position())

	require.NoError(t, tr.Stop())
	assert.Equal(t, domain.StatusStopped, tr.Status())
	assert.Zero(t, tr.Position())
}

func TestTransport_Read(t *testing.T) {
	tr, _ := NewTransport(4, 2)
	require.NoError(t, tr.Open(monoClip(4, 0.5, 0.5, 0.5, 0.5)))
	require.NoError(t, tr.Play())

	p := make([]byte, 19) // two whole frames plus a partial one
	n, err := tr.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	for i := 0; i < 4; i++ {
		v := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		assert.Equal(t, float32(0.5), v)
	}

	n, err = tr.Read(make([]byte, 3))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func toF64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
