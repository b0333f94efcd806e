package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
)

// rampClip is one second of mono audio at 1 kHz whose samples equal index/1000.
func rampClip() *domain.Clip {
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = float32(i) / 1000
	}
	return &domain.Clip{Title: "ramp", SampleRate: 1000, Channels: 1, Samples: samples}
}

func openedEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine()
	if err := engine.Initialize(48000); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := engine.Open(rampClip()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return engine
}

// TestNewMockEngine tests creating a new mock engine.
func TestNewMockEngine(t *testing.T) {
	engine := NewEngine()

	if engine == nil {
		t.Fatal("NewEngine returned nil")
	}

	if engine.IsInitialized() {
		t.Error("New engine should not be initialized")
	}

	if engine.Volume() != 1.0 {
		t.Errorf("Expected default volume 1.0, got %f", engine.Volume())
	}

	if engine.Duration() != 0 {
		t.Errorf("Expected zero duration without a clip, got %v", engine.Duration())
	}
}

// TestInitialize tests engine initialization.
func TestInitialize(t *testing.T) {
	engine := NewEngine()

	if err := engine.Initialize(44100); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if !engine.IsInitialized() {
		t.Error("Engine should be initialized")
	}

	if engine.SampleRate() != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", engine.SampleRate())
	}

	err := engine.Initialize(44100)
	if !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

// TestInitializeInvalidRate tests rejecting a non-positive sample rate.
func TestInitializeInvalidRate(t *testing.T) {
	engine := NewEngine()

	err := engine.Initialize(0)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

// TestInitializeFailure tests the initialize failure switch.
func TestInitializeFailure(t *testing.T) {
	engine := NewEngine()
	engine.SetFailInitialize(true)

	err := engine.Initialize(44100)
	var engineErr *domain.AudioEngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("Expected AudioEngineError, got %v", err)
	}
	if engine.IsInitialized() {
		t.Error("Engine should not be initialized after failure")
	}
}

// TestShutdown tests shutting down the engine.
func TestShutdown(t *testing.T) {
	engine := openedEngine(t)

	if err := engine.Shutdown(); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}

	if engine.IsInitialized() {
		t.Error("Engine should not be initialized after shutdown")
	}

	if err := engine.Play(); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}

	if err := engine.Shutdown(); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized on second shutdown, got %v", err)
	}
}

// TestOpen tests opening clips.
func TestOpen(t *testing.T) {
	engine := NewEngine()

	if err := engine.Open(rampClip()); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}

	_ = engine.Initialize(44100)

	if err := engine.Open(nil); !errors.Is(err, domain.ErrEmptyClip) {
		t.Errorf("Expected ErrEmptyClip for nil clip, got %v", err)
	}

	if err := engine.Open(&domain.Clip{SampleRate: 1000, Channels: 1}); !errors.Is(err, domain.ErrEmptyClip) {
		t.Errorf("Expected ErrEmptyClip for empty clip, got %v", err)
	}

	engine.SetFailOpen(true)
	var engineErr *domain.AudioEngineError
	if err := engine.Open(rampClip()); !errors.As(err, &engineErr) {
		t.Errorf("Expected AudioEngineError, got %v", err)
	}

	engine.SetFailOpen(false)
	if err := engine.Open(rampClip()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if engine.Duration() != time.Second {
		t.Errorf("Expected duration 1s, got %v", engine.Duration())
	}
	if engine.Status() != domain.StatusStopped {
		t.Errorf("Expected stopped after open, got %v", engine.Status())
	}
}

// TestTransportWithoutClip tests transport calls before any clip is opened.
func TestTransportWithoutClip(t *testing.T) {
	engine := NewEngine()
	_ = engine.Initialize(44100)

	if err := engine.Play(); !errors.Is(err, domain.ErrNoClipLoaded) {
		t.Errorf("Play: expected ErrNoClipLoaded, got %v", err)
	}
	if err := engine.Pause(); !errors.Is(err, domain.ErrNoClipLoaded) {
		t.Errorf("Pause: expected ErrNoClipLoaded, got %v", err)
	}
	if err := engine.Stop(); !errors.Is(err, domain.ErrNoClipLoaded) {
		t.Errorf("Stop: expected ErrNoClipLoaded, got %v", err)
	}
	if err := engine.Seek(0); !errors.Is(err, domain.ErrNoClipLoaded) {
		t.Errorf("Seek: expected ErrNoClipLoaded, got %v", err)
	}
	if engine.Position() != 0 {
		t.Errorf("Expected zero position, got %v", engine.Position())
	}
}

// TestPlayPauseStop tests the transport state machine.
func TestPlayPauseStop(t *testing.T) {
	engine := openedEngine(t)

	if err := engine.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if engine.Status() != domain.StatusPlaying {
		t.Errorf("Expected playing, got %v", engine.Status())
	}

	engine.Advance(250 * time.Millisecond)
	if engine.Position() != 250*time.Millisecond {
		t.Errorf("Expected position 250ms, got %v", engine.Position())
	}

	if err := engine.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if engine.Status() != domain.StatusPaused {
		t.Errorf("Expected paused, got %v", engine.Status())
	}

	if n := engine.Advance(100 * time.Millisecond); n != 0 {
		t.Errorf("Paused engine should not render, rendered %d frames", n)
	}

	if err := engine.Play(); err != nil {
		t.Fatalf("Play after pause failed: %v", err)
	}
	if engine.Position() != 250*time.Millisecond {
		t.Errorf("Resume should keep position, got %v", engine.Position())
	}

	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if engine.Status() != domain.StatusStopped || engine.Position() != 0 {
		t.Errorf("Stop should rewind, got %v at %v", engine.Status(), engine.Position())
	}
}

// TestPlayFailure tests the play failure switch.
func TestPlayFailure(t *testing.T) {
	engine := openedEngine(t)
	engine.SetFailPlay(true)

	var engineErr *domain.AudioEngineError
	if err := engine.Play(); !errors.As(err, &engineErr) {
		t.Errorf("Expected AudioEngineError, got %v", err)
	}
	if engine.Status() != domain.StatusStopped {
		t.Errorf("Failed play should leave engine stopped, got %v", engine.Status())
	}
}

// TestSeek tests seeking within the clip.
func TestSeek(t *testing.T) {
	engine := openedEngine(t)

	if err := engine.Seek(500 * time.Millisecond); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if engine.Position() != 500*time.Millisecond {
		t.Errorf("Expected position 500ms, got %v", engine.Position())
	}

	if err := engine.Seek(-time.Millisecond); !errors.Is(err, domain.ErrInvalidPosition) {
		t.Errorf("Expected ErrInvalidPosition for negative seek, got %v", err)
	}
	if err := engine.Seek(2 * time.Second); !errors.Is(err, domain.ErrInvalidPosition) {
		t.Errorf("Expected ErrInvalidPosition past the end, got %v", err)
	}
}

// TestVolume tests setting volume and its effect on rendered samples.
func TestVolume(t *testing.T) {
	engine := openedEngine(t)

	for _, bad := range []float64{-0.1, 1.5} {
		if err := engine.SetVolume(bad); !errors.Is(err, domain.ErrInvalidVolume) {
			t.Errorf("SetVolume(%f): expected ErrInvalidVolume, got %v", bad, err)
		}
	}

	if err := engine.SetVolume(0.5); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}

	var got []float32
	engine.SetTap(func(block []float32, channels int) {
		got = append([]float32(nil), block...)
	})

	_ = engine.Seek(100 * time.Millisecond)
	_ = engine.Play()
	engine.Pump(2)

	want := []float32{0.05, 0.0505}
	if len(got) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("sample %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

// TestPumpReachesEnd tests that playback stops at the end of the clip.
func TestPumpReachesEnd(t *testing.T) {
	engine := openedEngine(t)

	blocks := 0
	engine.SetTap(func(block []float32, channels int) {
		blocks++
		if channels != 1 {
			t.Errorf("Expected mono blocks, got %d channels", channels)
		}
	})

	_ = engine.Seek(900 * time.Millisecond)
	_ = engine.Play()

	if n := engine.Pump(512); n != 100 {
		t.Errorf("Expected 100 frames before the end, got %d", n)
	}
	if engine.Status() != domain.StatusStopped {
		t.Errorf("Expected stopped at end, got %v", engine.Status())
	}
	if engine.Position() != time.Second {
		t.Errorf("Expected position at end, got %v", engine.Position())
	}
	if blocks != 1 {
		t.Errorf("Expected 1 tapped block, got %d", blocks)
	}

	// Play after the end starts over.
	_ = engine.Play()
	if engine.Position() != 0 {
		t.Errorf("Expected rewind on replay, got %v", engine.Position())
	}
}

// TestConcurrentAccess tests thread-safety of the mock engine.
func TestConcurrentAccess(t *testing.T) {
	engine := openedEngine(t)
	_ = engine.Play()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			engine.Pump(16)
		}()
		go func() {
			defer wg.Done()
			_ = engine.Position()
			_ = engine.Status()
		}()
		go func(v float64) {
			defer wg.Done()
			_ = engine.SetVolume(v)
		}(float64(i) / 10)
	}
	wg.Wait()
}
