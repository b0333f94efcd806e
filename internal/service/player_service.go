// Package service provides the application logic of the audiolab demos.
package service

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// Default intervals of the cursor routine.
const (
	DefaultCursorInterval   = 16 * time.Millisecond
	DefaultProgressInterval = 250 * time.Millisecond
)

// PlaybackService orchestrates loading and playing one clip.
//
// A background routine copies position/duration into the cursor sink every
// cursor interval, publishes progress events less often, and notices when
// the engine reaches the end of the clip on its own.
// All operations are thread-safe via sync.RWMutex.
type PlaybackService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	engine  ports.AudioEngine
	loader  ports.AssetLoader
	decoder ports.Decoder
	bus     ports.EventBus
	history ports.HistoryRepository

	// State
	clip     *domain.Clip
	location string
	volume   float64
	playing  bool // true between a successful Play/Resume and Pause/Stop/end
	cursor   ports.CursorSink

	cursorInterval   time.Duration
	progressInterval time.Duration

	// Concurrency control
	mu            sync.RWMutex
	stopUpdate    chan struct{}
	updateRunning bool
	updateWg      sync.WaitGroup
}

// PlaybackOption configures a PlaybackService.
type PlaybackOption func(*PlaybackService)

// WithCursorInterval sets how often the cursor sink is updated.
func WithCursorInterval(d time.Duration) PlaybackOption {
	return func(s *PlaybackService) {
		if d > 0 {
			s.cursorInterval = d
		}
	}
}

// WithProgressInterval sets the minimum time between progress events.
func WithProgressInterval(d time.Duration) PlaybackOption {
	return func(s *PlaybackService) {
		if d > 0 {
			s.progressInterval = d
		}
	}
}

// WithHistory records every successfully loaded location.
func WithHistory(history ports.HistoryRepository) PlaybackOption {
	return func(s *PlaybackService) { s.history = history }
}

// NewPlaybackService creates a new playback service and starts its cursor routine.
func NewPlaybackService(
	logger *slog.Logger,
	engine ports.AudioEngine,
	loader ports.AssetLoader,
	decoder ports.Decoder,
	bus ports.EventBus,
	opts ...PlaybackOption,
) *PlaybackService {
	service := &PlaybackService{
		logger:           logger.With(slog.String("component", "playback-service")),
		engine:           engine,
		loader:           loader,
		decoder:          decoder,
		bus:              bus,
		volume:           1.0,
		cursorInterval:   DefaultCursorInterval,
		progressInterval: DefaultProgressInterval,
		stopUpdate:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(service)
	}

	service.logger.Debug("playback service initialized",
		slog.Duration("cursor_interval", service.cursorInterval))

	service.startUpdateRoutine()
	return service
}

// SetCursorSink directs cursor updates to sink. Nil detaches.
func (s *PlaybackService) SetCursorSink(sink ports.CursorSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = sink
}

// LoadAsset fetches, decodes and opens location.
func (s *PlaybackService) LoadAsset(ctx context.Context, location string) (*domain.Clip, error) {
	asset, err := s.loader.Load(ctx, location)
	if err != nil {
		s.bus.Publish(domain.NewAssetFailedEvent(location, err))
		return nil, err
	}
	s.bus.Publish(domain.NewAssetLoadedEvent(*asset))

	clip, err := s.decoder.Decode(asset)
	if err != nil {
		s.logger.Warn("decode failed", slog.String("location", location), slog.String("error", err.Error()))
		s.bus.Publish(domain.NewAssetFailedEvent(location, err))
		return nil, err
	}

	if err := s.open(clip, location); err != nil {
		return nil, err
	}

	if s.history != nil {
		if err := s.history.AddRecent(location); err != nil {
			s.logger.Warn("failed to record history", slog.String("error", err.Error()))
		}
	}
	return clip, nil
}

// OpenClip opens an already decoded clip.
func (s *PlaybackService) OpenClip(clip *domain.Clip) error {
	return s.open(clip, "")
}

func (s *PlaybackService) open(clip *domain.Clip, location string) error {
	s.mu.Lock()

	if err := s.engine.Open(clip); err != nil {
		s.mu.Unlock()
		s.logger.Warn("engine rejected clip", slog.String("error", err.Error()))
		s.bus.Publish(domain.NewPlaybackErrorEvent("open", err))
		return err
	}
	if err := s.engine.SetVolume(s.volume); err != nil {
		s.logger.Warn("failed to apply volume", slog.String("error", err.Error()))
	}

	s.clip = clip
	s.location = location
	s.playing = false
	cursor := s.cursor
	s.mu.Unlock()

	if cursor != nil {
		cursor.SetCursor(0)
	}

	s.logger.Info("clip opened",
		slog.String("title", clip.Title),
		slog.Duration("duration", clip.Duration()))
	s.bus.Publish(domain.NewClipLoadedEvent(clip, location))
	return nil
}

// Play starts the clip from the beginning.
func (s *PlaybackService) Play() error {
	s.mu.Lock()
	if s.clip == nil {
		s.mu.Unlock()
		return domain.ErrNoClipLoaded
	}
	if err := s.engine.Seek(0); err != nil {
		s.mu.Unlock()
		return err
	}
	event, err := s.startInternal()
	s.mu.Unlock()

	s.bus.Publish(event)
	return err
}

// Resume continues from the current position. It is a no-op while playing.
func (s *PlaybackService) Resume() error {
	s.mu.Lock()
	if s.clip == nil {
		s.mu.Unlock()
		return domain.ErrNoClipLoaded
	}
	if s.playing && s.engine.Status() == domain.StatusPlaying {
		s.mu.Unlock()
		return nil
	}
	event, err := s.startInternal()
	s.mu.Unlock()

	s.bus.Publish(event)
	return err
}

// startInternal starts the engine and returns the event to publish once the
// lock is released (caller must hold lock).
func (s *PlaybackService) startInternal() (domain.Event, error) {
	if err := s.engine.Play(); err != nil {
		s.logger.Warn("engine play failed", slog.String("error", err.Error()))
		return domain.NewPlaybackErrorEvent("play", err), err
	}
	s.playing = true
	return domain.NewPlaybackStartedEvent(s.engine.Position()), nil
}

// Pause pauses playback and keeps the position.
func (s *PlaybackService) Pause() error {
	s.mu.Lock()
	if s.clip == nil {
		s.mu.Unlock()
		return domain.ErrNoClipLoaded
	}
	if err := s.engine.Pause(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.playing = false
	position := s.engine.Position()
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaybackPausedEvent(position))
	return nil
}

// Stop stops playback and rewinds to the beginning.
func (s *PlaybackService) Stop() error {
	s.mu.Lock()
	stopped, err := s.stopInternal()
	cursor := s.cursor
	s.mu.Unlock()

	if !stopped || err != nil {
		return err
	}
	if cursor != nil {
		cursor.SetCursor(0)
	}
	s.bus.Publish(domain.NewPlaybackStoppedEvent())
	return nil
}

// stopInternal stops the engine and reports whether a clip was loaded
// (caller must hold lock).
func (s *PlaybackService) stopInternal() (bool, error) {
	if s.clip == nil {
		return false, nil
	}
	if err := s.engine.Stop(); err != nil {
		return true, err
	}
	s.playing = false
	return true, nil
}

// TogglePlay pauses while playing and resumes otherwise.
func (s *PlaybackService) TogglePlay() error {
	s.mu.RLock()
	playing := s.playing
	s.mu.RUnlock()

	if playing {
		return s.Pause()
	}
	return s.Resume()
}

// Seek moves the playback position.
func (s *PlaybackService) Seek(position time.Duration) error {
	s.mu.Lock()
	err := s.seekInternal(position)
	duration := s.engine.Duration()
	cursor := s.cursor
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.afterSeek(cursor, position, duration)
	return nil
}

// seekInternal seeks the engine (caller must hold lock).
func (s *PlaybackService) seekInternal(position time.Duration) error {
	if s.clip == nil {
		return domain.ErrNoClipLoaded
	}
	return s.engine.Seek(position)
}

// afterSeek refreshes the cursor and announces the new position.
func (s *PlaybackService) afterSeek(cursor ports.CursorSink, position, duration time.Duration) {
	if cursor != nil && duration > 0 {
		cursor.SetCursor(float64(position) / float64(duration))
	}
	s.bus.Publish(domain.NewPlaybackProgressEvent(position, duration))
}

// SeekToCursor seeks to ratio of the clip, ratio clamped to [0,1].
// Playback is paused around the seek and resumed if it was running.
func (s *PlaybackService) SeekToCursor(ratio float64) error {
	if math.IsNaN(ratio) {
		return domain.NewValidationError("ratio", ratio, "must be a number")
	}
	ratio = min(max(ratio, 0), 1)

	s.mu.Lock()
	if s.clip == nil {
		s.mu.Unlock()
		return domain.ErrNoClipLoaded
	}

	wasPlaying := s.playing
	if wasPlaying {
		if err := s.engine.Pause(); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	duration := s.engine.Duration()
	position := time.Duration(ratio * float64(duration))
	err := s.seekInternal(position)
	if err == nil && wasPlaying {
		err = s.engine.Play()
	}
	cursor := s.cursor
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.afterSeek(cursor, position, duration)
	return nil
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (s *PlaybackService) SetVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	if err := s.engine.SetVolume(volume); err != nil {
		s.mu.Unlock()
		return err
	}
	s.volume = volume
	s.mu.Unlock()

	s.bus.Publish(domain.NewVolumeChangedEvent(volume))
	return nil
}

// Volume returns the current volume (0.0 to 1.0).
func (s *PlaybackService) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.volume
}

// Location returns where the open clip was loaded from, "" for in-memory clips.
func (s *PlaybackService) Location() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.location
}

// GetState returns the current playback state.
func (s *PlaybackService) GetState() domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.PlaybackState{
		Clip:   s.clip,
		Volume: s.volume,
		Status: domain.StatusStopped,
	}
	if s.clip != nil {
		state.Status = s.engine.Status()
		state.Position = s.engine.Position()
		state.Duration = s.engine.Duration()
	}
	return state
}

// Shutdown stops the cursor routine and playback. It is safe to call twice.
func (s *PlaybackService) Shutdown() error {
	s.mu.Lock()

	if s.updateRunning {
		close(s.stopUpdate)
		s.updateRunning = false
	}

	// Release lock before waiting for goroutine to exit (to avoid deadlock)
	s.mu.Unlock()

	s.updateWg.Wait()

	return s.Stop()
}

// startUpdateRoutine starts the cursor goroutine.
func (s *PlaybackService) startUpdateRoutine() {
	s.mu.Lock()
	if s.updateRunning {
		s.mu.Unlock()
		return
	}
	s.updateRunning = true
	s.updateWg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.updateWg.Done()
		ticker := time.NewTicker(s.cursorInterval)
		defer ticker.Stop()

		var lastProgress time.Time
		for {
			select {
			case <-s.stopUpdate:
				return

			case now := <-ticker.C:
				publish := now.Sub(lastProgress) >= s.progressInterval
				if s.updateCursor(publish) && publish {
					lastProgress = now
				}
			}
		}
	}()
}

// updateCursor pushes the cursor and optionally a progress event. It reports
// whether a clip was loaded.
func (s *PlaybackService) updateCursor(publishProgress bool) bool {
	s.mu.RLock()
	if s.clip == nil {
		s.mu.RUnlock()
		return false
	}

	status := s.engine.Status()
	position := s.engine.Position()
	duration := s.engine.Duration()
	finished := s.playing && status == domain.StatusStopped
	cursor := s.cursor
	playing := s.playing
	s.mu.RUnlock()

	if cursor != nil && duration > 0 {
		cursor.SetCursor(float64(position) / float64(duration))
	}

	if publishProgress && playing {
		s.bus.Publish(domain.NewPlaybackProgressEvent(position, duration))
	}

	if finished {
		s.handleFinished()
	}
	return true
}

// handleFinished is called when the engine stopped at the end by itself.
func (s *PlaybackService) handleFinished() {
	s.mu.Lock()
	if !s.playing || s.clip == nil || s.engine.Status() != domain.StatusStopped {
		s.mu.Unlock()
		return
	}
	s.playing = false
	title := s.clip.Title
	s.mu.Unlock()

	s.logger.Debug("clip finished", slog.String("title", title))
	s.bus.Publish(domain.NewPlaybackCompletedEvent(title))
}

// Verify that PlaybackService implements the expected interface patterns
var _ interface {
	LoadAsset(context.Context, string) (*domain.Clip, error)
	OpenClip(*domain.Clip) error
	Play() error
	Resume() error
	Pause() error
	Stop() error
	TogglePlay() error
	Seek(time.Duration) error
	SeekToCursor(float64) error
	SetVolume(float64) error
	Volume() float64
	GetState() domain.PlaybackState
	Shutdown() error
} = (*PlaybackService)(nil)
