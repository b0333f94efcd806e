// Package memory provides repository implementations on top of Fyne preferences.
//
// Fyne stores preferences in the OS-specific app data directory:
// - macOS: ~/Library/Preferences/com.audiolab.app.plist
// - Linux: ~/.config/fyne/com.audiolab.app/
// - Windows: %APPDATA%\fyne\com.audiolab.app\
package memory

import (
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// Preference keys.
const (
	keyVolume      = "preferences.volume"
	keyLastExample = "preferences.last_example"
	keyLastAsset   = "preferences.last_asset"
)

// DefaultExample is returned by LoadLastExample when nothing was saved.
const DefaultExample = "equalizer"

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

// SaveVolume persists the volume level.
func (r *PreferencesRepository) SaveVolume(volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(keyVolume, volume)
	return nil
}

// LoadVolume retrieves the saved volume level.
func (r *PreferencesRepository) LoadVolume() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.FloatWithFallback(keyVolume, 1.0), nil
}

// SaveLastExample persists the selected demo.
func (r *PreferencesRepository) SaveLastExample(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyLastExample, name)
	return nil
}

// LoadLastExample retrieves the demo selected last time.
func (r *PreferencesRepository) LoadLastExample() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.StringWithFallback(keyLastExample, DefaultExample), nil
}

// SaveLastAsset persists the last opened path or URL.
func (r *PreferencesRepository) SaveLastAsset(location string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyLastAsset, location)
	return nil
}

// LoadLastAsset retrieves the last opened path or URL.
func (r *PreferencesRepository) LoadLastAsset() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.String(keyLastAsset), nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyVolume)
	r.prefs.RemoveValue(keyLastExample)
	r.prefs.RemoveValue(keyLastAsset)
	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
