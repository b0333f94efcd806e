// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/audiolab/internal/adapter/asset"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/audio/decoder"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/audio/speaker"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/audio/stream"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/clock"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/surface/raster"
	"github.com/tejashwikalptaru/audiolab/internal/adapter/ui/ebitenui"
	fyneui "github.com/tejashwikalptaru/audiolab/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/audiolab/internal/analysis"
	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/logger"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
	"github.com/tejashwikalptaru/audiolab/internal/service"
	"github.com/tejashwikalptaru/audiolab/internal/visualizer"
)

// Frontends.
const (
	FrontendFyne   = "fyne"
	FrontendEbiten = "ebiten"
)

const (
	// initialLoadTimeout bounds the startup load of Config.Asset
	initialLoadTimeout = 30 * time.Second

	// streamStopTimeout is how long Shutdown waits for a stream read in progress
	streamStopTimeout = time.Second

	// mockPumpInterval is the callback period simulated for the mock engine
	mockPumpInterval = 20 * time.Millisecond
)

// frontend is the window the application runs.
type frontend interface {
	Run() error
	Quit()
}

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
type Application struct {
	config Config

	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus    ports.EventBus
	audioEngine ports.AudioEngine

	// Repositories
	historyRepo     ports.HistoryRepository
	preferencesRepo ports.PreferencesRepository

	// Services
	playbackService   *service.PlaybackService
	exampleService    *service.ExampleService
	preferenceService *service.PreferenceService

	// Rendering
	surface  *raster.Canvas
	pipeline *pipeline

	// UI
	frontend   frontend
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow
	game       *ebitenui.Game

	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	streamOnce    sync.Once
	streamDone    chan struct{}
	subs          []domain.SubscriptionID
	shutdownOnce  sync.Once
	shutdownError error
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier, it also names the preferences store
	AppID string

	// AppName is the display name
	AppName string

	// Example is the demo shown at startup; empty restores the last one
	Example string

	// Asset is loaded at startup; empty restores the last one
	Asset string

	// Frontend is FrontendFyne or FrontendEbiten
	Frontend string

	// SampleRate is the audio output sample rate
	SampleRate int

	// FrameRate is the equalizer tick rate of the Fyne frontend;
	// the ebiten frontend follows the display refresh
	FrameRate int

	// UseMockAudio determines whether to use a mock audio engine (for testing)
	UseMockAudio bool

	// MockRealtime pumps the mock engine in real time so the equalizer moves
	// without an output device
	MockRealtime bool

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// LogFormat is "text" or "json"
	LogFormat string

	// Analyser forces waveform or spectrum analysis for every demo;
	// empty keeps each demo's own mode
	Analyser domain.AnalyserMode

	// Stream describes the raw PCM read by the audio-stream demo
	Stream stream.Config

	// StreamInput is read by the audio-stream demo; nil means stdin
	StreamInput io.Reader

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:        "com.audiolab.app",
		AppName:      "Audio Lab",
		Frontend:     FrontendFyne,
		SampleRate:   44100,
		FrameRate:    clock.DefaultFrameRate,
		UseMockAudio: false,
		LogLevel:     loggerCfg.Level,
		LogFormat:    loggerCfg.Format,
		Stream:       stream.DefaultConfig(),
	}
}

// Validate checks the configuration. Errors match domain.ErrInvalidArgument.
func (c Config) Validate() error {
	if c.Frontend != FrontendFyne && c.Frontend != FrontendEbiten {
		return domain.NewValidationError("frontend", c.Frontend, "must be fyne or ebiten")
	}
	if c.SampleRate <= 0 {
		return domain.NewValidationError("sampleRate", c.SampleRate, "must be positive")
	}
	if c.Analyser != "" {
		if _, err := analysis.ParseMode(string(c.Analyser)); err != nil {
			return err
		}
	}
	return c.Stream.Validate()
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		config:     config,
		ctx:        ctx,
		cancel:     cancel,
		streamDone: make(chan struct{}),
	}

	// Step 1: Create Fyne application. The ebiten frontend uses it for preferences only.
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 2: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("frontend", config.Frontend),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)

	// Step 4: Create an audio engine
	if err := app.initEngine(); err != nil {
		cancel()
		return nil, err
	}

	// Step 5: Create repositories
	prefs := app.fyneApp.Preferences()
	app.historyRepo = memory.NewHistoryRepository(prefs, memory.DefaultRecentLimit)
	app.preferencesRepo = memory.NewPreferencesRepository(prefs)

	// Step 6: Create services (with dependency injection)
	app.playbackService = service.NewPlaybackService(
		app.logger,
		app.audioEngine,
		asset.NewLoader(app.logger),
		decoder.NewDefaultRegistry(app.logger),
		app.eventBus,
		service.WithHistory(app.historyRepo),
	)
	app.exampleService = service.NewExampleService(app.logger, app.eventBus)
	app.preferenceService = service.NewPreferenceService(app.logger, app.preferencesRepo, app.eventBus)

	// Step 7: Resolve the startup demo before anything is drawn
	example, err := app.startupExample()
	if err != nil {
		_ = app.Shutdown()
		return nil, err
	}

	// Step 8: Create the surface, the frontend and its frame clock
	app.surface = raster.New(visualizer.ConfigFromSettings(example.Visualizer).CanvasSize())
	frameClock := app.initFrontend()

	// Step 9: Connect audio to the equalizer
	app.pipeline = newPipeline(app.logger, app.surface, frameClock, app.playbackService, config.Analyser)
	app.audioEngine.SetTap(app.pipeline.engineTap)
	app.subs = []domain.SubscriptionID{
		app.eventBus.Subscribe(domain.EventExampleSelected, app.onExampleSelected),
		app.eventBus.Subscribe(domain.EventClipLoaded, app.onClipLoaded),
	}

	// Step 10: Restore saved state
	app.loadSavedState()
	if _, err := app.exampleService.Select(example.Name); err != nil {
		_ = app.Shutdown()
		return nil, err
	}
	app.pipeline.start()

	if app.config.UseMockAudio && app.config.MockRealtime {
		app.startMockPump()
	}

	return app, nil
}

func (a *Application) initEngine() error {
	if a.config.UseMockAudio {
		engine := mock.NewEngine()
		engine.SetLogger(a.logger)
		if err := engine.Initialize(a.config.SampleRate); err != nil {
			return fmt.Errorf("failed to initialize audio engine: %w", err)
		}
		a.audioEngine = engine
		return nil
	}

	engine := speaker.NewEngine(a.logger)
	if err := engine.Initialize(a.config.SampleRate); err != nil {
		return fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	a.audioEngine = engine
	return nil
}

// startupExample picks Config.Example, else the last demo shown.
func (a *Application) startupExample() (domain.Example, error) {
	name := a.config.Example
	if name == "" {
		name = a.preferenceService.GetLastExample()
	}

	example, err := a.exampleService.Get(name)
	if err != nil && a.config.Example == "" {
		// a stale preference must not keep the application from starting
		a.logger.Warn("saved demo unknown, using default", slog.String("example", name))
		return a.exampleService.Get(memory.DefaultExample)
	}
	return example, err
}

// initFrontend builds the configured frontend and returns the clock that
// drives the equalizer.
func (a *Application) initFrontend() ports.FrameClock {
	if a.config.Frontend == FrontendEbiten {
		manual := clock.NewManual()
		a.game = ebitenui.NewGame(a.logger, manual, a.surface, a.playbackService, a.exampleService, a.eventBus)
		a.frontend = a.game
		return manual
	}

	a.mainWindow = fyneui.NewMainWindow(a.fyneApp, a.surface, a.exampleService.Names())
	a.presenter = fyneui.NewPresenter(
		a.logger,
		a.playbackService,
		a.exampleService,
		a.historyRepo,
		a.eventBus,
		a.mainWindow,
	)
	a.mainWindow.SetPresenter(a.presenter)
	a.mainWindow.SetVersion(GetVersionInfo().FullString())
	a.mainWindow.SetOnBeforeClose(func() {
		a.logger.Debug("main window closing")
	})
	a.frontend = a.mainWindow

	equalizer := a.mainWindow.Equalizer()
	return clock.AfterTick(clock.NewTicker(a.logger, a.config.FrameRate), func() {
		fyne.Do(equalizer.Refresh)
	})
}

// loadSavedState restores the volume of the previous session.
func (a *Application) loadSavedState() {
	volume := a.preferenceService.GetVolume()
	if err := a.playbackService.SetVolume(volume); err != nil {
		a.logger.Warn("failed to restore volume", slog.Any("error", err))
	}
}

// onExampleSelected rebuilds the equalizer for the demo and starts or pauses
// the matching audio source.
func (a *Application) onExampleSelected(event domain.Event) {
	e, ok := event.(domain.ExampleSelectedEvent)
	if !ok {
		return
	}
	example := e.Example

	if err := a.pipeline.configure(example); err != nil {
		a.logger.Error("failed to configure equalizer",
			slog.String("example", example.Name),
			slog.Any("error", err))
		return
	}

	if example.Source == domain.SourceStream {
		if a.playbackService.GetState().Status == domain.StatusPlaying {
			if err := a.playbackService.Pause(); err != nil {
				a.logger.Warn("failed to pause for stream", slog.Any("error", err))
			}
		}
		a.startStream()
	}
}

// onClipLoaded clears the equalizer and starts autoplay demos.
func (a *Application) onClipLoaded(domain.Event) {
	a.pipeline.reset()

	example, ok := a.exampleService.Current()
	if !ok || !example.Autoplay || example.Source != domain.SourceFile {
		return
	}
	if err := a.playbackService.Play(); err != nil {
		a.logger.Warn("autoplay failed", slog.Any("error", err))
	}
}

// startStream starts reading the PCM stream once. It runs until the input
// ends or the application shuts down.
func (a *Application) startStream() {
	a.streamOnce.Do(func() {
		input := a.config.StreamInput
		if input == nil {
			input = os.Stdin
		}

		source, err := stream.NewSource(a.logger, input, a.config.Stream, a.pipeline.streamTap)
		if err != nil {
			a.logger.Error("failed to create stream source", slog.Any("error", err))
			close(a.streamDone)
			return
		}

		go func() {
			defer close(a.streamDone)
			if err := source.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn("stream stopped", slog.Any("error", err))
				a.eventBus.Publish(domain.NewAssetFailedEvent("stream", err))
			}
		}()
	})
}

// startMockPump renders mock engine blocks in real time.
func (a *Application) startMockPump() {
	engine, ok := a.audioEngine.(*mock.Engine)
	if !ok {
		return
	}
	frames := a.config.SampleRate * int(mockPumpInterval) / int(time.Second)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(mockPumpInterval)
		defer ticker.Stop()
		for {
			select {
			case <-a.ctx.Done():
				return
			case <-ticker.C:
				engine.Pump(frames)
			}
		}
	}()
}

// loadInitialAsset loads Config.Asset, or the last asset, in the background.
func (a *Application) loadInitialAsset() {
	location := a.config.Asset
	if location == "" {
		location = a.preferenceService.GetLastAsset()
	}
	if location == "" {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(a.ctx, initialLoadTimeout)
		defer cancel()

		if _, err := a.playbackService.LoadAsset(ctx, location); err != nil {
			a.logger.Warn("failed to load startup asset",
				slog.String("location", location),
				slog.Any("error", err))
		}
	}()
}

// Run starts the application and blocks until the window is closed.
func (a *Application) Run() error {
	a.logger.Info("Audio Lab started", slog.String("frontend", a.config.Frontend))
	a.loadInitialAsset()
	return a.frontend.Run()
}

// Shutdown gracefully shuts down the application. It is safe to call twice.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.shutdownError = a.shutdown()
	})
	return a.shutdownError
}

func (a *Application) shutdown() error {
	a.logger.Info("shutting down application")

	a.cancel()
	a.wg.Wait()

	// a stream never started still needs its channel closed
	a.streamOnce.Do(func() { close(a.streamDone) })
	select {
	case <-a.streamDone:
	case <-time.After(streamStopTimeout):
		a.logger.Warn("stream read still blocked at shutdown")
	}

	for _, id := range a.subs {
		a.eventBus.Unsubscribe(id)
	}
	a.subs = nil

	// Shutdown UI and presenter
	if a.presenter != nil {
		a.presenter.Shutdown()
	}
	if a.game != nil {
		a.game.Shutdown()
	}

	if a.pipeline != nil {
		a.pipeline.stop()
		a.audioEngine.SetTap(nil)
	}

	// Shutdown services (in reverse order of creation)
	var errs []error
	if a.preferenceService != nil {
		if err := a.preferenceService.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("preference service: %w", err))
		}
	}
	if a.playbackService != nil {
		if err := a.playbackService.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("playback service: %w", err))
		}
	}

	// Shutdown audio engine
	if a.audioEngine != nil {
		if err := a.audioEngine.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("audio engine: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Warn("shutdown finished with errors", slog.Any("error", err))
	} else {
		a.logger.Info("application shutdown complete")
	}
	return err
}

// GetServices returns the application services.
func (a *Application) GetServices() (*service.PlaybackService, *service.ExampleService, *service.PreferenceService) {
	return a.playbackService, a.exampleService, a.preferenceService
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// GetEngine returns the audio engine.
func (a *Application) GetEngine() ports.AudioEngine {
	return a.audioEngine
}

// Visualizer returns the equalizer of the selected demo.
func (a *Application) Visualizer() *visualizer.Spectrum {
	return a.pipeline.current()
}

// Surface returns the canvas the equalizer draws on.
func (a *Application) Surface() *raster.Canvas {
	return a.surface
}
