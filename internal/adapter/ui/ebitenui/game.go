// Package ebitenui runs the demos in an ebiten window. ebiten calls Update
// once per display refresh, which makes it the frame clock of the
// visualizer's render loop.
package ebitenui

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/tejashwikalptaru/audiolab/internal/adapter/clock"
	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
	"github.com/tejashwikalptaru/audiolab/internal/service"
)

// Layout constants.
const (
	DefaultScale    = 3
	StatusBarHeight = 34

	volumeStep = 0.05
	seekStep   = 5 * time.Second
)

// FrameSource provides the most recently drawn equalizer frame.
type FrameSource interface {
	Size() (width, height int)
	Snapshot() *image.RGBA
}

// Command is a user action recognised by the game.
type Command int

// Commands bound to keys and the mouse.
const (
	CommandNone Command = iota
	CommandTogglePlay
	CommandPlay
	CommandResume
	CommandStop
	CommandVolumeUp
	CommandVolumeDown
	CommandSeekForward
	CommandSeekBack
	CommandNextExample
	CommandQuit
)

var keyBindings = []struct {
	key     ebiten.Key
	command Command
}{
	{ebiten.KeySpace, CommandTogglePlay},
	{ebiten.KeyP, CommandPlay},
	{ebiten.KeyR, CommandResume},
	{ebiten.KeyS, CommandStop},
	{ebiten.KeyArrowUp, CommandVolumeUp},
	{ebiten.KeyArrowDown, CommandVolumeDown},
	{ebiten.KeyArrowRight, CommandSeekForward},
	{ebiten.KeyArrowLeft, CommandSeekBack},
	{ebiten.KeyTab, CommandNextExample},
	{ebiten.KeyEscape, CommandQuit},
}

// Game implements ebiten.Game.
type Game struct {
	logger   *slog.Logger
	clock    *clock.Manual
	source   FrameSource
	playback *service.PlaybackService
	examples *service.ExampleService
	bus      ports.EventBus

	width, height int
	scale         int
	frame         *ebiten.Image
	origin        time.Time
	now           func() time.Time

	mu      sync.RWMutex
	message string
	subs    []domain.SubscriptionID

	quit atomic.Bool
}

// NewGame creates a game that ticks frameClock from Update and shows frames
// from source.
func NewGame(
	logger *slog.Logger,
	frameClock *clock.Manual,
	source FrameSource,
	playback *service.PlaybackService,
	examples *service.ExampleService,
	bus ports.EventBus,
) *Game {
	w, h := source.Size()
	g := &Game{
		logger:   logger.With(slog.String("component", "ebiten-frontend")),
		clock:    frameClock,
		source:   source,
		playback: playback,
		examples: examples,
		bus:      bus,
		width:    w,
		height:   h,
		scale:    DefaultScale,
		now:      time.Now,
	}
	g.origin = g.now()

	g.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventAssetFailed, func(e domain.Event) {
			if ev, ok := e.(domain.AssetFailedEvent); ok {
				g.setMessage(fmt.Sprintf("load failed: %v", ev.Error))
			}
		}),
		bus.Subscribe(domain.EventPlaybackError, func(e domain.Event) {
			if ev, ok := e.(domain.PlaybackErrorEvent); ok {
				g.setMessage(fmt.Sprintf("%s failed: %v", ev.Op, ev.Error))
			}
		}),
		bus.Subscribe(domain.EventClipLoaded, func(domain.Event) { g.setMessage("") }),
	}
	return g
}

// Run opens the window and blocks until it is closed.
func (g *Game) Run() error {
	title := "Audio Lab"
	if example, ok := g.examples.Current(); ok {
		title += " - " + example.Title
	}

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(g.Layout(0, 0))
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	g.logger.Info("starting ebiten frontend", slog.Int("width", g.width), slog.Int("height", g.height))
	return ebiten.RunGame(g)
}

// Quit makes the next Update end the game.
func (g *Game) Quit() {
	g.quit.Store(true)
}

// Shutdown stops following the event bus.
func (g *Game) Shutdown() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for _, id := range subs {
		g.bus.Unsubscribe(id)
	}
}

// Update implements ebiten.Game. It delivers one frame tick and handles input.
func (g *Game) Update() error {
	if ebiten.IsWindowBeingClosed() || g.quit.Load() {
		return ebiten.Termination
	}

	g.tick()

	for _, b := range keyBindings {
		if inpututil.IsKeyJustPressed(b.key) {
			g.Execute(b.command)
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.Click(x, y)
	}

	if g.quit.Load() {
		return ebiten.Termination
	}
	return nil
}

// tick delivers the frame tick for the current time.
func (g *Game) tick() {
	g.clock.TickAt(float64(g.now().Sub(g.origin)) / float64(time.Millisecond))
}

// Execute performs a command against the services.
func (g *Game) Execute(cmd Command) {
	var err error
	switch cmd {
	case CommandTogglePlay:
		err = g.playback.TogglePlay()
	case CommandPlay:
		err = g.playback.Play()
	case CommandResume:
		err = g.playback.Resume()
	case CommandStop:
		err = g.playback.Stop()
	case CommandVolumeUp:
		err = g.playback.SetVolume(min(g.playback.Volume()+volumeStep, 1))
	case CommandVolumeDown:
		err = g.playback.SetVolume(max(g.playback.Volume()-volumeStep, 0))
	case CommandSeekForward:
		err = g.seekBy(seekStep)
	case CommandSeekBack:
		err = g.seekBy(-seekStep)
	case CommandNextExample:
		err = g.nextExample()
	case CommandQuit:
		g.Quit()
	}

	if err != nil {
		g.logger.Warn("command failed", slog.Int("command", int(cmd)), slog.String("error", err.Error()))
		g.setMessage(err.Error())
	}
}

func (g *Game) seekBy(delta time.Duration) error {
	state := g.playback.GetState()
	if state.Duration <= 0 {
		return domain.ErrNoClipLoaded
	}
	target := min(max(state.Position+delta, 0), state.Duration)
	return g.playback.SeekToCursor(float64(target) / float64(state.Duration))
}

func (g *Game) nextExample() error {
	names := g.examples.Names()
	next := names[0]
	if current, ok := g.examples.Current(); ok {
		for i, name := range names {
			if name == current.Name {
				next = names[(i+1)%len(names)]
				break
			}
		}
	}
	_, err := g.examples.Select(next)
	return err
}

// Click seeks to the clicked column on demos with a seek control.
// x and y are in layout coordinates.
func (g *Game) Click(x, y int) {
	example, ok := g.examples.Current()
	if !ok || !example.HasControl(domain.ControlSeek) {
		return
	}
	if y < 0 || y >= g.height*g.scale {
		return
	}
	ratio := float64(x) / float64(g.width*g.scale)
	if err := g.playback.SeekToCursor(ratio); err != nil {
		g.setMessage(err.Error())
	}
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.frame == nil {
		g.frame = ebiten.NewImage(g.width, g.height)
	}
	g.frame.WritePixels(g.source.Snapshot().Pix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.frame, op)

	g.drawStatusBar(screen)
}

func (g *Game) drawStatusBar(screen *ebiten.Image) {
	top := g.height * g.scale
	ebitenutil.DrawRect(screen, 0, float64(top), float64(g.width*g.scale), StatusBarHeight, color.RGBA{0, 0, 0, 200})

	face := basicfont.Face7x13
	labelColor := color.RGBA{190, 190, 190, 255}
	lines := g.StatusLines()
	for i, line := range lines {
		text.Draw(screen, line, face, 6, top+13+i*15, labelColor)
	}
}

// StatusLines returns the two lines shown below the equalizer.
func (g *Game) StatusLines() []string {
	name := "-"
	if example, ok := g.examples.Current(); ok {
		name = example.Name
	}

	state := g.playback.GetState()
	title := "no audio"
	if state.Clip != nil {
		title = state.Clip.Title
	}

	first := fmt.Sprintf("[%s] %s  %s  %s / %s  vol %d%%",
		name, title, state.Status,
		formatTime(state.Position), formatTime(state.Duration),
		int(state.Volume*100+0.5))

	second := "space play/pause  s stop  r resume  arrows vol/seek  tab demo  esc quit"
	if msg := g.Message(); msg != "" {
		second = msg
	}
	return []string{first, second}
}

func formatTime(d time.Duration) string {
	seconds := int(d / time.Second)
	return fmt.Sprintf("%.2d:%.2d", seconds/60, seconds%60)
}

// Layout implements ebiten.Game with a fixed logical size.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width * g.scale, g.height*g.scale + StatusBarHeight
}

// Message returns the last error shown in the status bar.
func (g *Game) Message() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.message
}

func (g *Game) setMessage(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.message = msg
}

var _ ebiten.Game = (*Game)(nil)
