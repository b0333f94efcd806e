package app

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/audiolab/internal/analysis"
	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
	"github.com/tejashwikalptaru/audiolab/internal/service"
	"github.com/tejashwikalptaru/audiolab/internal/visualizer"
)

// pipeline carries audio blocks from the engine or the stream source through
// the analyser into the equalizer of the selected demo.
//
// Taps run on the audio goroutine and only do atomic loads; configure swaps
// the whole chain when another demo is selected.
type pipeline struct {
	logger   *slog.Logger
	surface  ports.Surface
	clock    ports.FrameClock
	playback *service.PlaybackService
	analyser domain.AnalyserMode // overrides Example.Analyser when set

	tap    atomic.Pointer[analysis.Tap]
	source atomic.Value // domain.SourceKind

	mu       sync.Mutex
	spectrum *visualizer.Spectrum
	running  bool
}

func newPipeline(
	logger *slog.Logger,
	surface ports.Surface,
	clock ports.FrameClock,
	playback *service.PlaybackService,
	analyser domain.AnalyserMode,
) *pipeline {
	p := &pipeline{
		logger:   logger.With(slog.String("component", "pipeline")),
		surface:  surface,
		clock:    clock,
		playback: playback,
		analyser: analyser,
	}
	p.source.Store(domain.SourceFile)
	return p
}

// configure builds an analyser, tap and visualizer for example and replaces
// the current ones. A running visualizer keeps running.
func (p *pipeline) configure(example domain.Example) error {
	mode := example.Analyser
	if p.analyser != "" {
		mode = p.analyser
	}

	analyser, err := analysis.New(analysis.DefaultConfig(mode, example.Visualizer.Size))
	if err != nil {
		return err
	}
	spectrum, err := visualizer.NewSpectrum(p.logger, p.surface, p.clock, visualizer.ConfigFromSettings(example.Visualizer))
	if err != nil {
		return err
	}
	tap, err := analysis.NewTap(p.logger, analyser, spectrum)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// the clock holds one registration, so the old loop must let go first
	if p.spectrum != nil {
		p.spectrum.Stop()
	}
	p.spectrum = spectrum
	p.tap.Store(tap)
	p.source.Store(example.Source)

	if example.ShowCursor {
		p.playback.SetCursorSink(spectrum)
	} else {
		p.playback.SetCursorSink(nil)
	}
	if p.running {
		spectrum.Start()
	}

	p.logger.Debug("pipeline configured",
		slog.String("example", example.Name),
		slog.String("analyser", string(mode)),
		slog.Bool("mirror", example.Visualizer.Mirror),
		slog.Bool("cursor", example.ShowCursor))
	return nil
}

// engineTap is installed on the audio engine. Blocks are dropped while a
// stream demo is selected.
func (p *pipeline) engineTap(block []float32, channels int) {
	p.deliver(domain.SourceFile, block, channels)
}

// streamTap receives blocks from the stream source.
func (p *pipeline) streamTap(block []float32, channels int) {
	p.deliver(domain.SourceStream, block, channels)
}

func (p *pipeline) deliver(from domain.SourceKind, block []float32, channels int) {
	if p.source.Load() != from {
		return
	}
	if tap := p.tap.Load(); tap != nil {
		tap.Process(block, channels)
	}
}

// reset clears the analyser history and the bars, used when a clip is loaded.
func (p *pipeline) reset() {
	if tap := p.tap.Load(); tap != nil {
		tap.Reset()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spectrum != nil {
		p.spectrum.Reset()
		p.spectrum.SetCursor(0)
	}
}

func (p *pipeline) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
	if p.spectrum != nil {
		p.spectrum.Start()
	}
}

func (p *pipeline) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	if p.spectrum != nil {
		p.spectrum.Stop()
	}
}

// currentTap returns the tap of the selected demo.
func (p *pipeline) currentTap() *analysis.Tap {
	return p.tap.Load()
}

// current returns the visualizer of the selected demo.
func (p *pipeline) current() *visualizer.Spectrum {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spectrum
}
