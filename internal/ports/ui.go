// Package ports define the UI interface for view abstraction.
// This interface allows the presenter to update the UI without depending on Fyne directly.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
)

// UI is the interface for the user interface layer.
//
// The presenter receives events from the event bus and calls these methods to
// update the view. This creates a clean separation between services,
// presentation logic (presenter) and view rendering.
//
// Thread-safety: implementations marshal every call onto their UI thread.
type UI interface {
	// SetExample shows the selected demo and enables only its controls.
	SetExample(example domain.Example)

	// SetAssetTitle shows the name of the loaded audio.
	SetAssetTitle(title string)

	// SetPlayState updates the transport buttons.
	// playing: true if currently playing, false if paused/stopped
	SetPlayState(playing bool)

	// SetProgress updates the position display.
	SetProgress(position, duration time.Duration)

	// SetVolume updates the volume slider (0.0 to 1.0).
	SetVolume(volume float64)

	// SetRecent lists recently opened locations, newest first.
	SetRecent(locations []string)

	// ShowError displays an error dialog to the user.
	ShowError(title, message string)

	// ShowInfo displays an informational dialog.
	ShowInfo(title, message string)

	// Run starts the UI event loop. Blocks until the window closes.
	Run() error

	// Quit closes the application.
	Quit()
}
