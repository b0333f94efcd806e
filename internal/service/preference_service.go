package service

import (
	"log/slog"
	"math"
	"sync"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// PreferenceService manages user preferences.
//
// Besides explicit setters it follows the event bus: volume changes, demo
// selections and loaded assets are persisted as they happen.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus

	// Cached preferences
	prefs domain.Preferences
	subs  []domain.SubscriptionID

	// Concurrency control
	mu sync.RWMutex
}

// defaultPreferences are used until something is saved.
func defaultPreferences() domain.Preferences {
	return domain.Preferences{Volume: 1.0, LastExample: "equalizer"}
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
) *PreferenceService {
	service := &PreferenceService{
		logger:     logger.With(slog.String("component", "preference-service")),
		repository: repository,
		bus:        bus,
		prefs:      defaultPreferences(),
	}

	service.loadPreferences()
	service.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventVolumeChanged, service.onVolumeChanged),
		bus.Subscribe(domain.EventExampleSelected, service.onExampleSelected),
		bus.Subscribe(domain.EventClipLoaded, service.onClipLoaded),
	}

	service.logger.Debug("preference service initialized",
		slog.Float64("volume", service.prefs.Volume),
		slog.String("last_example", service.prefs.LastExample))
	return service
}

// loadPreferences loads all preferences from the repository into the cache.
func (s *PreferenceService) loadPreferences() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vol, err := s.repository.LoadVolume(); err == nil {
		s.prefs.Volume = vol
	} else {
		s.logger.Warn("failed to load volume", slog.String("error", err.Error()))
	}
	if name, err := s.repository.LoadLastExample(); err == nil && name != "" {
		s.prefs.LastExample = name
	}
	if location, err := s.repository.LoadLastAsset(); err == nil {
		s.prefs.LastAsset = location
	}
}

func (s *PreferenceService) onVolumeChanged(e domain.Event) {
	if ev, ok := e.(domain.VolumeChangedEvent); ok {
		if err := s.SetVolume(ev.Volume); err != nil {
			s.logger.Warn("failed to persist volume", slog.String("error", err.Error()))
		}
	}
}

func (s *PreferenceService) onExampleSelected(e domain.Event) {
	if ev, ok := e.(domain.ExampleSelectedEvent); ok {
		if err := s.SetLastExample(ev.Example.Name); err != nil {
			s.logger.Warn("failed to persist example", slog.String("error", err.Error()))
		}
	}
}

func (s *PreferenceService) onClipLoaded(e domain.Event) {
	if ev, ok := e.(domain.ClipLoadedEvent); ok && ev.Location != "" {
		if err := s.SetLastAsset(ev.Location); err != nil {
			s.logger.Warn("failed to persist asset", slog.String("error", err.Error()))
		}
	}
}

// GetVolume returns the saved volume preference (0.0 to 1.0).
func (s *PreferenceService) GetVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.prefs.Volume
}

// SetVolume saves the volume preference (0.0 to 1.0).
func (s *PreferenceService) SetVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repository.SaveVolume(volume); err != nil {
		return err
	}
	s.prefs.Volume = volume
	return nil
}

// GetLastExample returns the demo selected last time.
func (s *PreferenceService) GetLastExample() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.prefs.LastExample
}

// SetLastExample saves the selected demo.
func (s *PreferenceService) SetLastExample(name string) error {
	if name == "" {
		return domain.NewValidationError("name", name, "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repository.SaveLastExample(name); err != nil {
		return err
	}
	s.prefs.LastExample = name
	return nil
}

// GetLastAsset returns the last opened path or URL, "" if none.
func (s *PreferenceService) GetLastAsset() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.prefs.LastAsset
}

// SetLastAsset saves the last opened path or URL.
func (s *PreferenceService) SetLastAsset(location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repository.SaveLastAsset(location); err != nil {
		return err
	}
	s.prefs.LastAsset = location
	return nil
}

// ResetToDefaults clears the repository and the cache.
func (s *PreferenceService) ResetToDefaults() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repository.Clear(); err != nil {
		return err
	}
	s.prefs = defaultPreferences()
	return nil
}

// GetAllPreferences returns a copy of the cached preferences.
func (s *PreferenceService) GetAllPreferences() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.prefs
}

// Shutdown stops following the event bus.
func (s *PreferenceService) Shutdown() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return nil
}

// Verify that PreferenceService implements the expected interface patterns
var _ interface {
	GetVolume() float64
	SetVolume(float64) error
	GetLastExample() string
	SetLastExample(string) error
	GetLastAsset() string
	SetLastAsset(string) error
	ResetToDefaults() error
	GetAllPreferences() domain.Preferences
	Shutdown() error
} = (*PreferenceService)(nil)
