package domain

import (
	"errors"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lime = color.NRGBA{R: 0x9f, G: 0xe7, B: 0x05, A: 255}
	navy = color.NRGBA{R: 0x1c, G: 0x1c, B: 0x69, A: 255}
)

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#9fe705")
	require.NoError(t, err)
	assert.Equal(t, lime, c)

	c, err = ParseHexColor("fff")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, c)

	for _, bad := range []string{"", "#12", "#zzzzzz", "#1234567"} {
		_, err := ParseHexColor(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument, bad)
	}

	assert.Panics(t, func() { MustParseHexColor("nope") })
	assert.Equal(t, Palette{Played: lime, Remaining: navy}, DefaultPalette())
}

func TestLinearGradient_HardSplit(t *testing.T) {
	g := NewLinearGradient(0, 0, 100, 0)
	g.AddColorStop(0, lime)
	g.AddColorStop(0.25, lime)
	g.AddColorStop(0.25, navy)
	g.AddColorStop(1, navy)

	assert.Equal(t, lime, g.ColorAt(0, 0))
	assert.Equal(t, lime, g.ColorAt(24.9, 50))
	assert.Equal(t, navy, g.ColorAt(25, 0), "later stop wins at a shared offset")
	assert.Equal(t, navy, g.ColorAt(99, 0))
	assert.Equal(t, navy, g.ColorAt(150, 0))
	assert.Equal(t, lime, g.ColorAt(-10, 0))
}

func TestLinearGradient_Interpolates(t *testing.T) {
	black := color.NRGBA{A: 255}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	g := NewLinearGradient(0, 0, 10, 0)
	g.AddColorStop(1, white)
	g.AddColorStop(0, black)

	mid := g.ColorAt(5, 0)
	assert.Equal(t, uint8(128), mid.R)
	assert.Equal(t, uint8(255), mid.A)
}

func TestLinearGradient_ClampsOffsets(t *testing.T) {
	g := NewLinearGradient(0, 0, 1, 0)
	g.AddColorStop(-3, lime)
	g.AddColorStop(7, navy)
	g.AddColorStop(math.NaN(), navy)

	require.Len(t, g.Stops, 3)
	assert.Equal(t, 0.0, g.Stops[0].Offset)
	assert.Equal(t, 0.0, g.Stops[1].Offset)
	assert.Equal(t, 1.0, g.Stops[2].Offset)
}

func TestLinearGradient_Degenerate(t *testing.T) {
	var empty LinearGradient
	assert.Equal(t, color.NRGBA{}, empty.ColorAt(1, 1))

	g := NewLinearGradient(5, 5, 5, 5)
	g.AddColorStop(0, lime)
	g.AddColorStop(1, navy)
	assert.Equal(t, navy, g.ColorAt(0, 0))
}

func TestCompositeOp_String(t *testing.T) {
	assert.Equal(t, "source-over", CompositeSourceOver.String())
	assert.Equal(t, "source-in", CompositeSourceIn.String())
	assert.Equal(t, "unknown", CompositeOp(9).String())
}

func TestClip(t *testing.T) {
	var nilClip *Clip
	assert.Zero(t, nilClip.Frames())
	assert.Zero(t, nilClip.Duration())

	c := &Clip{SampleRate: 48000, Channels: 2, Samples: make([]float32, 96000)}
	assert.Equal(t, 48000, c.Frames())
	assert.Equal(t, time.Second, c.Duration())
}

func TestPlaybackState_Progress(t *testing.T) {
	assert.Zero(t, PlaybackState{}.Progress())
	s := PlaybackState{Position: time.Second, Duration: 4 * time.Second}
	assert.Equal(t, 0.25, s.Progress())
}

func TestExample_HasControl(t *testing.T) {
	e := Example{Controls: []Control{ControlPlay, ControlStop}}
	assert.True(t, e.HasControl(ControlStop))
	assert.False(t, e.HasControl(ControlSeek))
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAssetError("fetch", "http://x/a.mp3", 0, cause)
	assert.ErrorIs(t, err, ErrTransientIO)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	status := NewAssetError("fetch", "http://x/a.mp3", 404, nil)
	assert.ErrorIs(t, status, ErrTransientIO)
	assert.Contains(t, status.Error(), "status 404")

	assert.ErrorIs(t, NewValidationError("size", 0, "bad"), ErrInvalidArgument)

	engine := NewAudioEngineError("play", "no device", ErrNotInitialized)
	assert.ErrorIs(t, engine, ErrNotInitialized)

	svc := NewServiceError("PlaybackService", "Play", "failed", engine)
	var target *AudioEngineError
	assert.True(t, errors.As(svc, &target))
}

func TestEvents(t *testing.T) {
	clip := &Clip{Title: "t", SampleRate: 1000, Channels: 1, Samples: make([]float32, 500)}
	loaded := NewClipLoadedEvent(clip, "t.wav")
	assert.Equal(t, EventClipLoaded, loaded.Type())
	assert.Equal(t, 500*time.Millisecond, loaded.Duration)
	assert.Equal(t, "t.wav", loaded.Location)
	assert.False(t, loaded.Timestamp().IsZero())

	p := NewPlaybackProgressEvent(time.Second, 4*time.Second)
	assert.Equal(t, 0.25, p.Cursor())
	assert.Zero(t, NewPlaybackProgressEvent(time.Second, 0).Cursor())

	a := NewAssetLoadedEvent(Asset{Location: "a.wav", Title: "Song", Artist: "Band", Data: []byte{1, 2}})
	assert.Equal(t, "Band - Song", a.Title)
	assert.Equal(t, 2, a.Size)
}
