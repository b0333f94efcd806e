// Package ports define repository interfaces for data persistence abstraction.
package ports

// PreferencesRepository handles the persistence of user preferences.
// This abstracts the Fyne preferences storage.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// Volume preferences

	// SaveVolume persists the volume level.
	SaveVolume(volume float64) error

	// LoadVolume retrieves the saved volume level.
	// If no volume was saved, returns 1.0 (full volume) as default.
	LoadVolume() (float64, error)

	// Demo preferences

	// SaveLastExample persists the name of the selected demo.
	SaveLastExample(name string) error

	// LoadLastExample retrieves the demo selected last time.
	// If none was saved, returns "equalizer" as default.
	LoadLastExample() (string, error)

	// SaveLastAsset persists the path or URL of the last opened asset.
	SaveLastAsset(location string) error

	// LoadLastAsset retrieves the last opened asset, "" when none was saved.
	LoadLastAsset() (string, error)

	// Utility methods

	// Clear removes all saved preferences.
	Clear() error
}

// HistoryRepository remembers recently opened assets.
//
// Thread-safety: Implementations must be thread-safe.
type HistoryRepository interface {
	// AddRecent records location as the most recent asset.
	AddRecent(location string) error

	// LoadRecent returns recent locations, most recent first.
	LoadRecent() ([]string, error)

	// Clear removes the history.
	Clear() error
}
