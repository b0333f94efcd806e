package decoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// Codec errors.
var (
	ErrNotWAV       = errors.New("not a wav file")
	ErrNotAIFF      = errors.New("not an aiff file")
	ErrBadBitDepth  = errors.New("unsupported bit depth")
	ErrMissingShape = errors.New("missing sample rate or channel count")
)

// intPCMReader is the part of the go-audio wav and aiff decoders we use.
type intPCMReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// readIntPCM drains r and scales the integers into [-1,1].
func readIntPCM(r intPCMReader, bitDepth int) (*PCM, error) {
	var scale float32
	switch bitDepth {
	case 8:
		scale = 128
	case 16:
		scale = 32768
	case 24:
		scale = 8388608
	case 32:
		scale = 2147483648
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadBitDepth, bitDepth)
	}

	format := r.Format()
	if format == nil || format.SampleRate <= 0 || format.NumChannels <= 0 {
		return nil, ErrMissingShape
	}

	buf := &goaudio.IntBuffer{
		Data:   make([]int, 4096*format.NumChannels),
		Format: format,
	}
	var samples []float32
	for {
		n, err := r.PCMBuffer(buf)
		for _, v := range buf.Data[:n] {
			samples = append(samples, float32(v)/scale)
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if n == 0 || err != nil {
			break
		}
	}

	return &PCM{
		SampleRate: format.SampleRate,
		Channels:   format.NumChannels,
		Samples:    samples,
	}, nil
}

// WAV decodes RIFF/WAVE integer PCM through go-audio/wav.
type WAV struct{}

// Decode implements Codec.
func (WAV) Decode(data []byte) (*PCM, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("wav header: %w", err)
	}
	return readIntPCM(dec, int(dec.BitDepth))
}

// AIFF decodes AIFF integer PCM through go-audio/aiff.
type AIFF struct{}

// Decode implements Codec.
func (AIFF) Decode(data []byte) (*PCM, error) {
	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrNotAIFF
	}
	dec.ReadInfo()
	return readIntPCM(dec, int(dec.BitDepth))
}

// mp3Reader is the part of the go-mp3 decoder we use.
type mp3Reader interface {
	io.Reader
	SampleRate() int
}

// MP3 decodes MPEG-1/2 layer III through go-mp3. Output is always stereo.
type MP3 struct{}

// Decode implements Codec.
func (MP3) Decode(data []byte) (*PCM, error) {
	dec, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return readMP3(dec)
}

func readMP3(dec mp3Reader) (*PCM, error) {
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 read: %w", err)
	}

	// go-mp3 emits 16-bit little-endian stereo
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(v) / 32768
	}

	return &PCM{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Samples:    samples,
	}, nil
}

// Vorbis decodes Ogg Vorbis through jfreymuth/oggvorbis.
type Vorbis struct{}

// Decode implements Codec.
func (Vorbis) Decode(data []byte) (*PCM, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ogg vorbis: %w", err)
	}
	if format == nil {
		return nil, ErrMissingShape
	}
	return &PCM{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Samples:    samples,
	}, nil
}
