package fyne

import (
	"errors"
	"fmt"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/audiolab/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
	"github.com/tejashwikalptaru/audiolab/res"
)

// Window defaults.
const (
	APPNAME = "Audio Lab"
	WIDTH   = 640
	HEIGHT  = 320
)

// MainWindow is the main UI window implementing the ports.UI interface.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window

	// UI components
	exampleSelect *widget.Select
	description   *widget.Label
	assetInfo     *widget.Label
	playButton    *widget.Button
	resumeButton  *widget.Button
	pauseButton   *widget.Button
	stopButton    *widget.Button
	volumeSlider  *widget.Slider
	volumeBox     *fyneapp.Container
	progressBar   *widget.ProgressBar
	timeLabel     *widget.Label
	equalizer     *widgets.Equalizer

	// State
	example   domain.Example
	recent    []string
	selecting bool // true while the selector is updated from code
	version   string

	// Lifecycle management
	closeOnce     sync.Once
	onBeforeClose func()

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window showing frames from source.
func NewMainWindow(app fyneapp.App, source widgets.FrameSource, examples []string) *MainWindow {
	w := &MainWindow{
		app: app,
	}

	w.window = app.NewWindow(APPNAME)
	w.buildUI(source, examples)

	w.window.Resize(fyneapp.NewSize(WIDTH, HEIGHT))
	w.window.SetCloseIntercept(func() {
		if w.onBeforeClose != nil {
			w.onBeforeClose()
		}
		w.window.Close()
	})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// SetOnBeforeClose registers fn to run when the user closes the window.
func (w *MainWindow) SetOnBeforeClose(fn func()) {
	w.onBeforeClose = fn
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI(source widgets.FrameSource, examples []string) {
	w.equalizer = widgets.NewEqualizer(source)

	w.exampleSelect = widget.NewSelect(examples, nil)
	w.exampleSelect.PlaceHolder = "Choose a demo"

	w.description = widget.NewLabel("")
	w.description.Wrapping = fyneapp.TextWrapWord

	w.assetInfo = widget.NewLabel("No audio loaded")
	w.assetInfo.Truncation = fyneapp.TextTruncateEllipsis
	w.assetInfo.TextStyle = fyneapp.TextStyle{
		Bold:   true,
		Italic: true,
	}

	w.playButton = widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), nil)
	w.resumeButton = widget.NewButtonWithIcon("Resume", theme.MediaSkipNextIcon(), nil)
	w.pauseButton = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), nil)

	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Orientation = widget.Horizontal
	w.volumeBox = container.NewBorder(nil, nil, widget.NewIcon(theme.VolumeUpIcon()), nil, w.volumeSlider)

	w.progressBar = widget.NewProgressBar()
	w.progressBar.TextFormatter = func() string { return "" }
	w.timeLabel = widget.NewLabel("00:00 / 00:00")

	header := container.NewBorder(nil, nil, w.exampleSelect, nil, w.description)
	buttons := container.NewHBox(w.playButton, w.resumeButton, w.pauseButton, w.stopButton)
	transport := container.NewBorder(nil, nil, buttons, nil, w.volumeBox)
	progress := container.NewBorder(nil, nil, nil, w.timeLabel, w.progressBar)
	footer := container.NewVBox(w.assetInfo, progress, transport)

	w.window.SetContent(container.NewPadded(container.NewBorder(header, footer, nil, nil, w.equalizer)))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = w.presenter.OnPlayClicked
	w.resumeButton.OnTapped = w.presenter.OnResumeClicked
	w.pauseButton.OnTapped = w.presenter.OnPauseClicked
	w.stopButton.OnTapped = w.presenter.OnStopClicked

	w.volumeSlider.OnChanged = func(value float64) {
		w.presenter.OnVolumeChanged(value)
	}

	w.exampleSelect.OnChanged = func(name string) {
		if !w.selecting {
			w.presenter.OnExampleSelected(name)
		}
	}
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	separator := fyneapp.NewMenuItemSeparator()

	openFile := fyneapp.NewMenuItem("Open...", w.handleOpenFile)
	openURL := fyneapp.NewMenuItem("Open URL...", w.handleOpenURL)

	openRecent := fyneapp.NewMenuItem("Open Recent", nil)
	openRecent.ChildMenu = w.recentMenu()

	fileMenu := fyneapp.NewMenu("File", openFile, openURL, separator, openRecent)

	demos := make([]*fyneapp.MenuItem, 0, len(w.exampleSelect.Options))
	for _, name := range w.exampleSelect.Options {
		demos = append(demos, fyneapp.NewMenuItem(name, func() {
			w.presenter.OnExampleSelected(name)
		}))
	}

	helpMenu := fyneapp.NewMenu("Help", fyneapp.NewMenuItem("About", w.handleAbout))

	return []*fyneapp.Menu{fileMenu, fyneapp.NewMenu("Demos", demos...), helpMenu}
}

// SetVersion sets the version line of the About dialog.
func (w *MainWindow) SetVersion(version string) {
	w.version = version
}

// handleAbout shows the About dialog.
func (w *MainWindow) handleAbout() {
	content := widget.NewRichTextFromMarkdown(res.AboutContent)
	content.Wrapping = fyneapp.TextWrapWord
	box := container.NewVBox(content)
	if w.version != "" {
		box.Add(widget.NewLabel(w.version))
	}
	about := dialog.NewCustom("About "+APPNAME, "Close", box, w.window)
	about.Resize(fyneapp.NewSize(420, 320))
	about.Show()
}

func (w *MainWindow) recentMenu() *fyneapp.Menu {
	if len(w.recent) == 0 {
		empty := fyneapp.NewMenuItem("No recent audio", nil)
		empty.Disabled = true
		return fyneapp.NewMenu("", empty)
	}

	items := make([]*fyneapp.MenuItem, 0, len(w.recent)+2)
	for _, location := range w.recent {
		items = append(items, fyneapp.NewMenuItem(location, func() {
			w.presenter.OnOpenLocation(location)
		}))
	}
	items = append(items,
		fyneapp.NewMenuItemSeparator(),
		fyneapp.NewMenuItem("Clear Recent", func() { w.presenter.OnClearRecent() }))
	return fyneapp.NewMenu("", items...)
}

// handleOpenFile handles the "Open" menu action.
func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}
	NewFileDialog(w.window, w.presenter.OnOpenLocation, w.presenter.logger).Show()
}

// handleOpenURL handles the "Open URL" menu action.
func (w *MainWindow) handleOpenURL() {
	if w.presenter == nil {
		return
	}
	NewURLDialog(w.window, w.presenter.OnOpenLocation).Show()
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyUp,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(min(w.volumeSlider.Value+5, 100))
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyDown,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(max(w.volumeSlider.Value-5, 0))
	})

	w.window.Canvas().SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		if ev.Name == fyneapp.KeySpace {
			w.presenter.OnTogglePlay()
		}
	})
}

// Run shows the window and runs the application.
func (w *MainWindow) Run() error {
	w.window.ShowAndRun()
	return nil
}

// Quit closes the window and ends the event loop.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Quit() {
	w.closeOnce.Do(func() {
		w.window.Close()
		w.app.Quit()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// Equalizer returns the widget showing the visualizer frames.
func (w *MainWindow) Equalizer() *widgets.Equalizer {
	return w.equalizer
}

// UI interface implementation

// SetExample shows the demo and the controls it exposes.
func (w *MainWindow) SetExample(example domain.Example) {
	w.example = example

	if w.exampleSelect.Selected != example.Name {
		w.selecting = true
		w.exampleSelect.SetSelected(example.Name)
		w.selecting = false
	}
	w.window.SetTitle(APPNAME + " - " + example.Title)
	w.description.SetText(example.Description)

	setVisible(w.playButton, example.HasControl(domain.ControlPlay))
	setVisible(w.resumeButton, example.HasControl(domain.ControlResume))
	setVisible(w.pauseButton, example.HasControl(domain.ControlPause))
	setVisible(w.stopButton, example.HasControl(domain.ControlStop))
	setVisible(w.volumeBox, example.HasControl(domain.ControlVolume))

	if example.HasControl(domain.ControlSeek) && w.presenter != nil {
		w.equalizer.SetOnSeek(w.presenter.OnSeekRequested)
	} else {
		w.equalizer.SetOnSeek(nil)
	}
}

func setVisible(o fyneapp.CanvasObject, visible bool) {
	if visible {
		o.Show()
	} else {
		o.Hide()
	}
}

// SetAssetTitle updates the displayed audio name.
func (w *MainWindow) SetAssetTitle(title string) {
	if title == "" {
		title = "Untitled"
	}
	w.assetInfo.SetText(title)
}

// SetPlayState enables the buttons that make sense in the current state.
func (w *MainWindow) SetPlayState(playing bool) {
	if playing {
		w.pauseButton.Enable()
		w.resumeButton.Disable()
	} else {
		w.pauseButton.Disable()
		w.resumeButton.Enable()
	}
}

// SetProgress updates the progress bar and time display.
func (w *MainWindow) SetProgress(position, duration time.Duration) {
	if duration > 0 {
		w.progressBar.SetValue(float64(position) / float64(duration))
	} else {
		w.progressBar.SetValue(0)
	}
	w.timeLabel.SetText(formatTime(position) + " / " + formatTime(duration))
}

func formatTime(d time.Duration) string {
	seconds := int(d / time.Second)
	return fmt.Sprintf("%.2d:%.2d", seconds/60, seconds%60)
}

// SetVolume updates the volume slider without triggering OnChanged.
func (w *MainWindow) SetVolume(volume float64) {
	// Convert from 0.0-1.0 to 0-100
	w.volumeSlider.Value = volume * 100.0
	w.volumeSlider.Refresh()
}

// SetRecent rebuilds the "Open Recent" menu.
func (w *MainWindow) SetRecent(locations []string) {
	w.recent = append([]string(nil), locations...)
	if w.presenter != nil {
		w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
	}
}

// ShowError displays an error dialog.
func (w *MainWindow) ShowError(title, message string) {
	dialog.ShowError(errors.New(title+": "+message), w.window)
}

// ShowInfo displays an informational dialog.
func (w *MainWindow) ShowInfo(title, message string) {
	dialog.ShowInformation(title, message, w.window)
}

// Verify UI implementation
var _ ports.UI = (*MainWindow)(nil)
