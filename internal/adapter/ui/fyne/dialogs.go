package fyne

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

var errInvalidURL = errors.New("enter an http or https URL")

// AudioExtensions are the file types offered by the open dialog.
var AudioExtensions = []string{".wav", ".wave", ".aif", ".aiff", ".mp3", ".ogg", ".oga"}

// FileDialog is a helper for creating audio file open dialogs.
type FileDialog struct {
	window   fyne.Window
	callback func(string)
	logger   *slog.Logger
}

// NewFileDialog creates a new file dialog.
func NewFileDialog(window fyne.Window, callback func(string), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		if d.callback != nil {
			d.callback(reader.URI().Path())
		}
	}, d.window)
	open.SetFilter(storage.NewExtensionFileFilter(AudioExtensions))
	open.Show()
}

// URLDialog asks for an http(s) address to stream from.
type URLDialog struct {
	window   fyne.Window
	callback func(string)
}

// NewURLDialog creates a new URL dialog.
func NewURLDialog(window fyne.Window, callback func(string)) *URLDialog {
	return &URLDialog{window: window, callback: callback}
}

// Show displays the URL dialog.
func (d *URLDialog) Show() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://example.com/track.wav")
	entry.Validator = ValidateAudioURL

	items := []*widget.FormItem{widget.NewFormItem("URL", entry)}
	dialog.ShowForm("Open URL", "Open", "Cancel", items, func(ok bool) {
		if ok && d.callback != nil {
			d.callback(strings.TrimSpace(entry.Text))
		}
	}, d.window)
}

// ValidateAudioURL accepts absolute http and https URLs.
func ValidateAudioURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errInvalidURL
	}
	return nil
}
