package memory

import (
	"encoding/json"
	"slices"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

const keyRecentAssets = "history.recent_assets"

// DefaultRecentLimit is how many locations HistoryRepository keeps.
const DefaultRecentLimit = 10

// HistoryRepository implements ports.HistoryRepository using Fyne preferences.
// The list is stored as JSON, most recent first, without duplicates.
//
// Thread-safe: All operations protected by sync.RWMutex.
type HistoryRepository struct {
	prefs fyne.Preferences
	limit int
	mu    sync.RWMutex
}

// NewHistoryRepository creates a new history repository keeping up to limit
// entries. A non-positive limit means DefaultRecentLimit.
func NewHistoryRepository(prefs fyne.Preferences, limit int) *HistoryRepository {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &HistoryRepository{
		prefs: prefs,
		limit: limit,
	}
}

// AddRecent moves location to the front of the list.
func (r *HistoryRepository) AddRecent(location string) error {
	if location == "" {
		return domain.NewValidationError("location", location, "must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recent, err := r.load()
	if err != nil {
		// A corrupt list is overwritten.
		recent = nil
	}

	recent = slices.DeleteFunc(recent, func(s string) bool { return s == location })
	recent = append([]string{location}, recent...)
	if len(recent) > r.limit {
		recent = recent[:r.limit]
	}

	data, err := json.Marshal(recent)
	if err != nil {
		return domain.NewServiceError("HistoryRepository", "AddRecent", "failed to marshal history", err)
	}
	r.prefs.SetString(keyRecentAssets, string(data))
	return nil
}

// LoadRecent returns the saved locations, most recent first.
func (r *HistoryRepository) LoadRecent() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load()
}

// load reads the list. Caller holds r.mu.
func (r *HistoryRepository) load() ([]string, error) {
	data := r.prefs.String(keyRecentAssets)
	if data == "" {
		return []string{}, nil
	}

	var recent []string
	if err := json.Unmarshal([]byte(data), &recent); err != nil {
		return nil, domain.NewServiceError("HistoryRepository", "LoadRecent", "failed to unmarshal history", err)
	}
	return recent, nil
}

// Clear removes all saved history data.
func (r *HistoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyRecentAssets)
	return nil
}

// Verify interface implementation
var _ ports.HistoryRepository = (*HistoryRepository)(nil)
