package service

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// Visualizer parameters shared by every demo.
const (
	DemoBins            = 256
	DemoRefreshInterval = 100 // ms
	DemoSmoothing       = 0.1
)

// Catalogue returns the demos in display order.
func Catalogue() []domain.Example {
	settings := func(mirror bool) domain.VisualizerSettings {
		return domain.VisualizerSettings{
			Size:            DemoBins,
			RefreshInterval: DemoRefreshInterval,
			Smoothing:       DemoSmoothing,
			Mirror:          mirror,
		}
	}

	return []domain.Example{
		{
			Name:        "audio-element",
			Title:       "Audio element",
			Description: "Plays a file straight away and draws its waveform. Click the bars to seek.",
			Source:      domain.SourceFile,
			Analyser:    domain.ModeWaveform,
			Visualizer:  settings(true),
			Controls:    []domain.Control{domain.ControlPlay, domain.ControlPause, domain.ControlVolume, domain.ControlSeek},
			ShowCursor:  true,
			Autoplay:    true,
		},
		{
			Name:        "buffer-source",
			Title:       "Buffer source",
			Description: "Decodes a file into memory and plays it with full transport controls.",
			Source:      domain.SourceFile,
			Analyser:    domain.ModeWaveform,
			Visualizer:  settings(true),
			Controls: []domain.Control{
				domain.ControlPlay, domain.ControlResume, domain.ControlPause,
				domain.ControlStop, domain.ControlVolume, domain.ControlSeek,
			},
			ShowCursor: true,
		},
		{
			Name:        "equalizer",
			Title:       "Equalizer",
			Description: "Bars of a playing file with no cursor.",
			Source:      domain.SourceFile,
			Analyser:    domain.ModeWaveform,
			Visualizer:  settings(false),
			Controls:    []domain.Control{domain.ControlPause, domain.ControlResume, domain.ControlVolume},
			Autoplay:    true,
		},
		{
			Name:        "audio-stream",
			Title:       "Audio stream",
			Description: "Waveform of raw PCM read from standard input.",
			Source:      domain.SourceStream,
			Analyser:    domain.ModeWaveform,
			Visualizer:  settings(false),
		},
	}
}

// ExampleService tracks which demo is active.
// All operations are thread-safe via sync.RWMutex.
type ExampleService struct {
	logger    *slog.Logger
	bus       ports.EventBus
	catalogue []domain.Example

	current string
	mu      sync.RWMutex
}

// NewExampleService creates a service over the standard catalogue.
func NewExampleService(logger *slog.Logger, bus ports.EventBus) *ExampleService {
	return &ExampleService{
		logger:    logger.With(slog.String("component", "example-service")),
		bus:       bus,
		catalogue: Catalogue(),
	}
}

// List returns the catalogue in display order.
func (s *ExampleService) List() []domain.Example {
	out := make([]domain.Example, len(s.catalogue))
	copy(out, s.catalogue)
	return out
}

// Names returns the catalogue keys in display order.
func (s *ExampleService) Names() []string {
	names := make([]string, len(s.catalogue))
	for i, e := range s.catalogue {
		names[i] = e.Name
	}
	return names
}

// Get looks up a demo by name.
func (s *ExampleService) Get(name string) (domain.Example, error) {
	for _, e := range s.catalogue {
		if e.Name == name {
			return e, nil
		}
	}
	return domain.Example{}, fmt.Errorf("%w: %q (valid: %s)",
		domain.ErrUnknownExample, name, strings.Join(s.Names(), ", "))
}

// Select makes name the active demo and announces it.
func (s *ExampleService) Select(name string) (domain.Example, error) {
	example, err := s.Get(name)
	if err != nil {
		return domain.Example{}, err
	}

	s.mu.Lock()
	s.current = name
	s.mu.Unlock()

	s.logger.Info("example selected", slog.String("name", name))
	s.bus.Publish(domain.NewExampleSelectedEvent(example))
	return example, nil
}

// Current returns the active demo, false before the first Select.
func (s *ExampleService) Current() (domain.Example, bool) {
	s.mu.RLock()
	name := s.current
	s.mu.RUnlock()

	if name == "" {
		return domain.Example{}, false
	}
	example, err := s.Get(name)
	return example, err == nil
}
