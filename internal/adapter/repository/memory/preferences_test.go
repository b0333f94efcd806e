package memory

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a test preferences repository
func newTestPreferencesRepository() *PreferencesRepository {
	app := test.NewApp()
	prefs := app.Preferences()

	return NewPreferencesRepository(prefs)
}

func TestPreferencesRepository_SaveAndLoadVolume(t *testing.T) {
	repo := newTestPreferencesRepository()

	err := repo.SaveVolume(0.75)
	require.NoError(t, err)

	volume, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 0.75, volume)
}

func TestPreferencesRepository_LoadVolume_Default(t *testing.T) {
	repo := newTestPreferencesRepository()

	volume, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 1.0, volume)
}

func TestPreferencesRepository_SaveVolume_Zero(t *testing.T) {
	repo := newTestPreferencesRepository()

	require.NoError(t, repo.SaveVolume(0.0))

	volume, err := repo.LoadVolume()
	require.NoError(t, err)
	assert.Equal(t, 0.0, volume, "muted is a saved value, not a missing one")
}

func TestPreferencesRepository_LastExample(t *testing.T) {
	repo := newTestPreferencesRepository()

	name, err := repo.LoadLastExample()
	require.NoError(t, err)
	assert.Equal(t, DefaultExample, name)

	require.NoError(t, repo.SaveLastExample("buffer-source"))

	name, err = repo.LoadLastExample()
	require.NoError(t, err)
	assert.Equal(t, "buffer-source", name)
}

func TestPreferencesRepository_LastAsset(t *testing.T) {
	repo := newTestPreferencesRepository()

	location, err := repo.LoadLastAsset()
	require.NoError(t, err)
	assert.Empty(t, location)

	require.NoError(t, repo.SaveLastAsset("https://example.com/loop.ogg"))

	location, err = repo.LoadLastAsset()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/loop.ogg", location)
}

func TestPreferencesRepository_Clear(t *testing.T) {
	repo := newTestPreferencesRepository()

	require.NoError(t, repo.SaveVolume(0.2))
	require.NoError(t, repo.SaveLastExample("audio-stream"))
	require.NoError(t, repo.SaveLastAsset("/tmp/a.wav"))

	require.NoError(t, repo.Clear())

	volume, _ := repo.LoadVolume()
	name, _ := repo.LoadLastExample()
	location, _ := repo.LoadLastAsset()
	assert.Equal(t, 1.0, volume)
	assert.Equal(t, DefaultExample, name)
	assert.Empty(t, location)
}
