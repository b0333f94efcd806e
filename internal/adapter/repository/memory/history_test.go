package memory

import (
	"fmt"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/audiolab/internal/domain"
)

func TestHistoryRepository_Empty(t *testing.T) {
	repo := NewHistoryRepository(test.NewApp().Preferences(), 0)

	recent, err := repo.LoadRecent()
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.NotNil(t, recent)
}

func TestHistoryRepository_MostRecentFirstWithoutDuplicates(t *testing.T) {
	repo := NewHistoryRepository(test.NewApp().Preferences(), 0)

	require.NoError(t, repo.AddRecent("a.wav"))
	require.NoError(t, repo.AddRecent("b.mp3"))
	require.NoError(t, repo.AddRecent("a.wav"))

	recent, err := repo.LoadRecent()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.wav", "b.mp3"}, recent)
}

func TestHistoryRepository_Limit(t *testing.T) {
	repo := NewHistoryRepository(test.NewApp().Preferences(), 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AddRecent(fmt.Sprintf("%d.ogg", i)))
	}

	recent, err := repo.LoadRecent()
	require.NoError(t, err)
	assert.Equal(t, []string{"4.ogg", "3.ogg", "2.ogg"}, recent)
}

func TestHistoryRepository_RejectsEmpty(t *testing.T) {
	repo := NewHistoryRepository(test.NewApp().Preferences(), 0)
	assert.ErrorIs(t, repo.AddRecent(""), domain.ErrInvalidArgument)
}

func TestHistoryRepository_CorruptData(t *testing.T) {
	prefs := test.NewApp().Preferences()
	prefs.SetString(keyRecentAssets, "{not json")
	repo := NewHistoryRepository(prefs, 0)

	_, err := repo.LoadRecent()
	var svcErr *domain.ServiceError
	assert.ErrorAs(t, err, &svcErr)

	require.NoError(t, repo.AddRecent("fresh.wav"))
	recent, err := repo.LoadRecent()
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh.wav"}, recent)
}

func TestHistoryRepository_Clear(t *testing.T) {
	repo := NewHistoryRepository(test.NewApp().Preferences(), 0)
	require.NoError(t, repo.AddRecent("a.wav"))

	require.NoError(t, repo.Clear())

	recent, err := repo.LoadRecent()
	require.NoError(t, err)
	assert.Empty(t, recent)
}
