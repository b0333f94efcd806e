package analysis

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// Tap sits on the audio callback: every rendered block is mixed to mono, fed
// to the analyser and the result written to the sink, once per block.
type Tap struct {
	logger   *slog.Logger
	analyser *Analyser
	sink     ports.SampleSink

	mu   sync.Mutex
	mono []float32
	out  []float32

	blocks   atomic.Uint64
	failures atomic.Uint64
}

// NewTap connects analyser to sink. The sink must accept exactly analyser.Bins()
// values; sinks that report a size are checked here.
func NewTap(logger *slog.Logger, analyser *Analyser, sink ports.SampleSink) (*Tap, error) {
	if sized, ok := sink.(interface{ Size() int }); ok && sized.Size() != analyser.Bins() {
		return nil, domain.NewValidationError("sink", sized.Size(), "size must equal analyser bins")
	}
	return &Tap{
		logger:   logger.With(slog.String("component", "analysis-tap")),
		analyser: analyser,
		sink:     sink,
		out:      make([]float32, analyser.Bins()),
	}, nil
}

// Process is a ports.TapFunc. block holds interleaved frames of channels samples.
func (t *Tap) Process(block []float32, channels int) {
	if channels <= 0 || len(block) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	frames := len(block) / channels
	if cap(t.mono) < frames {
		t.mono = make([]float32, frames)
	}
	mono := t.mono[:frames]
	inv := 1 / float32(channels)
	for i := range mono {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += block[i*channels+ch]
		}
		mono[i] = sum * inv
	}

	t.analyser.Push(mono)
	n := t.blocks.Add(1)

	if err := t.analyser.Read(t.out); err != nil {
		t.fail(n, err)
		return
	}
	if err := t.sink.Write(t.out); err != nil {
		t.fail(n, err)
	}
}

// fail logs the first failure and then every thousandth, the audio thread
// must not flood the log.
func (t *Tap) fail(block uint64, err error) {
	count := t.failures.Add(1)
	if count == 1 || count%1000 == 0 {
		t.logger.Warn("analysis tap write failed",
			slog.Uint64("block", block),
			slog.Uint64("failures", count),
			slog.String("error", err.Error()))
	}
}

// Blocks returns the number of blocks processed.
func (t *Tap) Blocks() uint64 {
	return t.blocks.Load()
}

// Failures returns the number of blocks whose result could not be delivered.
func (t *Tap) Failures() uint64 {
	return t.failures.Load()
}

// Reset clears the analyser history.
func (t *Tap) Reset() {
	t.analyser.Reset()
}
