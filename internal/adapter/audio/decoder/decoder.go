// Package decoder turns fetched audio files into in-memory PCM clips.
//
// Each container format is handled by a third-party library wrapped behind a
// small reader interface; the Registry picks the codec by the asset's format,
// sniffing the bytes when the format is unknown.
package decoder

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// Format keys.
const (
	FormatWAV  = "wav"
	FormatAIFF = "aiff"
	FormatMP3  = "mp3"
	FormatOgg  = "ogg"
)

// PCM is decoded interleaved audio.
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Codec decodes one container format.
type Codec interface {
	Decode(data []byte) (*PCM, error)
}

// Registry maps format keys to codecs.
type Registry struct {
	logger *slog.Logger

	mu     sync.RWMutex
	codecs map[string]Codec
}

var _ ports.Decoder = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With(slog.String("component", "decoder")),
		codecs: make(map[string]Codec),
	}
}

// NewDefaultRegistry creates a registry with every built-in codec.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(FormatWAV, WAV{})
	r.Register(FormatAIFF, AIFF{})
	r.Register(FormatMP3, MP3{})
	r.Register(FormatOgg, Vorbis{})
	return r
}

// Register adds or replaces the codec for format.
func (r *Registry) Register(format string, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[strings.ToLower(format)] = c
}

// Get returns the codec for format.
func (r *Registry) Get(format string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[strings.ToLower(format)]
	return c, ok
}

// Formats lists the registered format keys in order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Decode implements ports.Decoder.
func (r *Registry) Decode(asset *domain.Asset) (*domain.Clip, error) {
	if asset == nil || len(asset.Data) == 0 {
		return nil, domain.ErrEmptyClip
	}

	format := asset.Format
	if format == "" {
		format = Sniff(asset.Data)
	}

	codec, ok := r.Get(format)
	if !ok {
		return nil, fmt.Errorf("decode %q (format %q): %w", asset.Location, format, domain.ErrUnsupportedFormat)
	}

	pcm, err := codec.Decode(asset.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %q as %s: %w", asset.Location, format, err)
	}
	if pcm.Channels <= 0 || pcm.SampleRate <= 0 || len(pcm.Samples) < pcm.Channels {
		return nil, fmt.Errorf("decode %q as %s: %w", asset.Location, format, domain.ErrEmptyClip)
	}

	clip := &domain.Clip{
		Title:      asset.DisplayName(),
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
		Samples:    pcm.Samples,
	}

	r.logger.Debug("asset decoded",
		slog.String("location", asset.Location),
		slog.String("format", format),
		slog.Int("sample_rate", clip.SampleRate),
		slog.Int("channels", clip.Channels),
		slog.Duration("duration", clip.Duration()))

	return clip, nil
}

// Sniff guesses the container format from magic bytes. It returns "" when
// nothing matches.
func Sniff(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("FORM")) &&
		(bytes.Equal(data[8:12], []byte("AIFF")) || bytes.Equal(data[8:12], []byte("AIFC"))):
		return FormatAIFF
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte("OggS")):
		return FormatOgg
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return ""
}

// FormatFromExtension maps a file extension (with or without the dot) to a format key.
func FormatFromExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "wav", "wave":
		return FormatWAV
	case "aif", "aiff", "aifc":
		return FormatAIFF
	case "mp3":
		return FormatMP3
	case "ogg", "oga":
		return FormatOgg
	}
	return ""
}
