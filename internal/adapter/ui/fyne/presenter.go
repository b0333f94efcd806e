// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
	"github.com/tejashwikalptaru/audiolab/internal/service"
)

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to UI updates on the UI thread
// - Translate UI commands to service method calls
//
// Thread-safety: All operations are thread-safe via sync.RWMutex.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	playbackService *service.PlaybackService
	exampleService  *service.ExampleService
	history         ports.HistoryRepository

	eventBus ports.EventBus
	view     ports.UI

	// runOnUI executes fn on the UI goroutine
	runOnUI func(fn func())

	// Background loads
	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup

	// Concurrency control
	mu           sync.RWMutex
	subs         []domain.SubscriptionID
	shutdownOnce sync.Once
}

// PresenterOption configures a Presenter.
type PresenterOption func(*Presenter)

// WithUIRunner replaces fyne.Do as the way events reach the view.
func WithUIRunner(run func(fn func())) PresenterOption {
	return func(p *Presenter) { p.runOnUI = run }
}

// NewPresenter creates a new presenter. history may be nil.
func NewPresenter(
	logger *slog.Logger,
	playbackService *service.PlaybackService,
	exampleService *service.ExampleService,
	history ports.HistoryRepository,
	eventBus ports.EventBus,
	view ports.UI,
	opts ...PresenterOption,
) *Presenter {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Presenter{
		logger:          logger.With(slog.String("component", "presenter")),
		playbackService: playbackService,
		exampleService:  exampleService,
		history:         history,
		eventBus:        eventBus,
		view:            view,
		runOnUI:         fyneapp.Do,
		ctx:             ctx,
		cancel:          cancel,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.subscribeToEvents()
	p.syncInitialState()
	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		domain.EventExampleSelected:  p.onExampleSelected,
		domain.EventClipLoaded:       p.onClipLoaded,
		domain.EventAssetFailed:      p.onAssetFailed,
		domain.EventPlaybackStarted:  p.onPlaybackStarted,
		domain.EventPlaybackPaused:   p.onPlaybackHalted,
		domain.EventPlaybackStopped:  p.onPlaybackStopped,
		domain.EventPlaybackComplete: p.onPlaybackHalted,
		domain.EventPlaybackProgress: p.onPlaybackProgress,
		domain.EventPlaybackError:    p.onPlaybackError,
		domain.EventVolumeChanged:    p.onVolumeChanged,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for eventType, handler := range subscriptions {
		p.subs = append(p.subs, p.eventBus.Subscribe(eventType, handler))
	}
}

// syncInitialState brings the view in line with the services.
func (p *Presenter) syncInitialState() {
	state := p.playbackService.GetState()

	p.view.SetVolume(state.Volume)
	p.view.SetPlayState(state.Status == domain.StatusPlaying)
	if state.Clip != nil {
		p.view.SetAssetTitle(state.Clip.Title)
		p.view.SetProgress(state.Position, state.Duration)
	}
	if example, ok := p.exampleService.Current(); ok {
		p.view.SetExample(example)
	}
	p.view.SetRecent(p.RecentLocations())
}

// Event handlers. The bus calls them from service goroutines, so every view
// update is handed to the UI thread.

func (p *Presenter) onExampleSelected(event domain.Event) {
	if e, ok := event.(domain.ExampleSelectedEvent); ok {
		p.runOnUI(func() { p.view.SetExample(e.Example) })
	}
}

func (p *Presenter) onClipLoaded(event domain.Event) {
	e, ok := event.(domain.ClipLoadedEvent)
	if !ok {
		return
	}
	recent := p.RecentLocations()
	p.runOnUI(func() {
		p.view.SetAssetTitle(e.Title)
		p.view.SetProgress(0, e.Duration)
		p.view.SetPlayState(false)
		p.view.SetRecent(recent)
	})
}

func (p *Presenter) onAssetFailed(event domain.Event) {
	if e, ok := event.(domain.AssetFailedEvent); ok {
		p.runOnUI(func() {
			p.view.ShowError("Could not load audio", fmt.Sprintf("%s: %v", e.Location, e.Error))
		})
	}
}

func (p *Presenter) onPlaybackStarted(domain.Event) {
	p.runOnUI(func() { p.view.SetPlayState(true) })
}

func (p *Presenter) onPlaybackHalted(domain.Event) {
	p.runOnUI(func() { p.view.SetPlayState(false) })
}

func (p *Presenter) onPlaybackStopped(domain.Event) {
	duration := p.playbackService.GetState().Duration
	p.runOnUI(func() {
		p.view.SetPlayState(false)
		p.view.SetProgress(0, duration)
	})
}

func (p *Presenter) onPlaybackProgress(event domain.Event) {
	if e, ok := event.(domain.PlaybackProgressEvent); ok {
		p.runOnUI(func() { p.view.SetProgress(e.Position, e.Duration) })
	}
}

func (p *Presenter) onPlaybackError(event domain.Event) {
	if e, ok := event.(domain.PlaybackErrorEvent); ok {
		p.runOnUI(func() {
			p.view.ShowError("Playback error", fmt.Sprintf("%s failed: %v", e.Op, e.Error))
		})
	}
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	if e, ok := event.(domain.VolumeChangedEvent); ok {
		p.runOnUI(func() { p.view.SetVolume(e.Volume) })
	}
}

// UI Command handlers (called by UI)

// OnPlayClicked starts the clip from the beginning.
func (p *Presenter) OnPlayClicked() {
	p.report("play", p.playbackService.Play())
}

// OnResumeClicked continues from the current position.
func (p *Presenter) OnResumeClicked() {
	p.report("resume", p.playbackService.Resume())
}

// OnPauseClicked pauses playback.
func (p *Presenter) OnPauseClicked() {
	p.report("pause", p.playbackService.Pause())
}

// OnStopClicked stops playback and rewinds.
func (p *Presenter) OnStopClicked() {
	p.report("stop", p.playbackService.Stop())
}

// OnTogglePlay pauses while playing and resumes otherwise.
func (p *Presenter) OnTogglePlay() {
	p.report("toggle", p.playbackService.TogglePlay())
}

// OnVolumeChanged handles volume slider changes (0 to 100).
func (p *Presenter) OnVolumeChanged(volume float64) {
	p.report("volume", p.playbackService.SetVolume(volume/100.0))
}

// OnSeekRequested seeks to ratio of the clip. Demos without a seek control
// ignore it.
func (p *Presenter) OnSeekRequested(ratio float64) {
	if example, ok := p.exampleService.Current(); ok && !example.HasControl(domain.ControlSeek) {
		return
	}
	p.report("seek", p.playbackService.SeekToCursor(ratio))
}

// OnExampleSelected switches the active demo.
func (p *Presenter) OnExampleSelected(name string) {
	if _, err := p.exampleService.Select(name); err != nil {
		p.logger.Warn("unknown example", slog.String("name", name))
		p.view.ShowError("Unknown demo", err.Error())
	}
}

// OnOpenLocation loads a file path or URL in the background. Failures
// arrive as asset.failed events.
func (p *Presenter) OnOpenLocation(location string) {
	if location == "" {
		return
	}
	p.loads.Add(1)
	go func() {
		defer p.loads.Done()

		ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
		defer cancel()

		if _, err := p.playbackService.LoadAsset(ctx, location); err != nil {
			p.logger.Warn("load failed", slog.String("location", location), slog.String("error", err.Error()))
		}
	}()
}

// RecentLocations returns recently opened locations, newest first.
func (p *Presenter) RecentLocations() []string {
	if p.history == nil {
		return nil
	}
	recent, err := p.history.LoadRecent()
	if err != nil {
		p.logger.Warn("failed to load history", slog.String("error", err.Error()))
		return nil
	}
	return recent
}

// OnClearRecent forgets the recently opened locations.
func (p *Presenter) OnClearRecent() {
	if p.history == nil {
		return
	}
	if err := p.history.Clear(); err != nil {
		p.report("clear history", err)
		return
	}
	p.view.SetRecent(nil)
}

// report logs err and shows it to the user.
func (p *Presenter) report(op string, err error) {
	if err == nil {
		return
	}
	p.logger.Error(op+" failed", slog.Any("error", err))
	p.view.ShowError("Playback Error", fmt.Sprintf("Failed to %s: %v", op, err))
}

// Shutdown cancels pending loads and stops following the bus.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.cancel()
		p.loads.Wait()

		p.mu.Lock()
		subs := p.subs
		p.subs = nil
		p.mu.Unlock()

		for _, id := range subs {
			p.eventBus.Unsubscribe(id)
		}
	})
}
