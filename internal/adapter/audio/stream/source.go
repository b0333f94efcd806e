// Package stream feeds raw PCM from a reader into an analysis tap.
//
// It backs the audio-stream demo: audio arrives from a live source (stdin by
// default) and is only analysed, never played.
package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// Encoding is the sample format of the raw stream.
type Encoding string

// Supported encodings.
const (
	EncodingS16LE Encoding = "s16le"
	EncodingF32LE Encoding = "f32le"
)

// DefaultBlockFrames matches the buffer size of the analysis callback.
const DefaultBlockFrames = 1024

// ParseEncoding parses an encoding name, ignoring case.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(s))); e {
	case EncodingS16LE, EncodingF32LE:
		return e, nil
	default:
		return "", domain.NewValidationError("encoding", s, "must be s16le or f32le")
	}
}

func (e Encoding) bytesPerSample() int {
	if e == EncodingF32LE {
		return 4
	}
	return 2
}

// Config describes the stream layout.
type Config struct {
	Encoding    Encoding
	SampleRate  int
	Channels    int
	BlockFrames int

	// Realtime paces delivery to the sample rate. Without it blocks are
	// delivered as fast as they can be read.
	Realtime bool
}

// DefaultConfig returns CD-quality s16le stereo, paced.
func DefaultConfig() Config {
	return Config{
		Encoding:    EncodingS16LE,
		SampleRate:  44100,
		Channels:    2,
		BlockFrames: DefaultBlockFrames,
		Realtime:    true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := ParseEncoding(string(c.Encoding)); err != nil {
		return err
	}
	if c.SampleRate <= 0 {
		return domain.NewValidationError("SampleRate", c.SampleRate, "must be positive")
	}
	if c.Channels <= 0 {
		return domain.NewValidationError("Channels", c.Channels, "must be positive")
	}
	if c.BlockFrames <= 0 {
		return domain.NewValidationError("BlockFrames", c.BlockFrames, "must be positive")
	}
	return nil
}

// Source reads blocks from r and hands them to the tap.
type Source struct {
	logger *slog.Logger
	r      io.Reader
	cfg    Config
	tap    ports.TapFunc

	frames atomic.Uint64
}

// NewSource creates a source. tap receives every decoded block.
func NewSource(logger *slog.Logger, r io.Reader, cfg Config, tap ports.TapFunc) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NewValidationError("reader", nil, "must not be nil")
	}
	if tap == nil {
		return nil, domain.NewValidationError("tap", nil, "must not be nil")
	}
	return &Source{
		logger: logger.With(slog.String("component", "stream-source")),
		r:      r,
		cfg:    cfg,
		tap:    tap,
	}, nil
}

// Frames returns the number of frames delivered so far.
func (s *Source) Frames() uint64 {
	return s.frames.Load()
}

// Position returns the stream time delivered so far.
func (s *Source) Position() time.Duration {
	return time.Duration(s.frames.Load()) * time.Second / time.Duration(s.cfg.SampleRate)
}

// Run delivers blocks until the reader is exhausted (nil) or ctx is
// cancelled (ctx.Err()). A read already in progress is not interrupted.
func (s *Source) Run(ctx context.Context) error {
	frameBytes := s.cfg.Channels * s.cfg.Encoding.bytesPerSample()
	raw := make([]byte, s.cfg.BlockFrames*frameBytes)
	block := make([]float32, s.cfg.BlockFrames*s.cfg.Channels)

	s.logger.Info("stream started",
		slog.String("encoding", string(s.cfg.Encoding)),
		slog.Int("sample_rate", s.cfg.SampleRate),
		slog.Int("channels", s.cfg.Channels))

	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(s.r, raw)
		frames := n / frameBytes
		if frames > 0 {
			s.decode(raw[:frames*frameBytes], block)
			s.tap(block[:frames*s.cfg.Channels], s.cfg.Channels)
			s.frames.Add(uint64(frames))
		}

		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			s.logger.Info("stream ended", slog.Duration("position", s.Position()))
			return nil
		case err != nil:
			return domain.NewAssetError("read", "stream", 0, err)
		}

		if s.cfg.Realtime {
			if err := s.pace(ctx, start); err != nil {
				return err
			}
		}
	}
}

// pace waits until the wall clock catches up with the delivered audio.
func (s *Source) pace(ctx context.Context, start time.Time) error {
	wait := time.Until(start.Add(s.Position()))
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Source) decode(raw []byte, dst []float32) {
	switch s.cfg.Encoding {
	case EncodingF32LE:
		for i := 0; i+4 <= len(raw); i += 4 {
			dst[i/4] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i:]))
		}
	default:
		for i := 0; i+2 <= len(raw); i += 2 {
			dst[i/2] = float32(int16(binary.LittleEndian.Uint16(raw[i:]))) / 32768
		}
	}
}
