package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefaults() Settings {
	return Settings{
		DefaultLanguage: "en",
		FollowupDays:    7,
		Timezone:        "Europe/Paris",
		EmailDelay:      2,
		MaxRetries:      3,
		AutoFollowup:    false,
	}
}

func TestNewStoreSeedsDefaults(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(dir, testDefaults())
	require.NoError(t, err)

	assert.Equal(t, testDefaults(), s.Get())
	_, err = os.Stat(filepath.Join(dir, "settings.json"))
	assert.NoError(t, err, "settings file is created on first load")
}

func TestUpdatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, testDefaults())
	require.NoError(t, err)

	next := s.Get()
	next.DefaultLanguage = "fr"
	next.FollowupDays = 10
	next.AutoFollowup = true
	_, err = s.Update(next)
	require.NoError(t, err)

	reopened, err := NewStore(dir, testDefaults())
	require.NoError(t, err)
	got := reopened.Get()
	assert.Equal(t, "fr", got.DefaultLanguage)
	assert.Equal(t, 10, got.FollowupDays)
	assert.True(t, got.AutoFollowup)
}

func TestUpdateClampsInvalidValues(t *testing.T) {
	s, err := NewStore(t.TempDir(), testDefaults())
	require.NoError(t, err)

	got, err := s.Update(Settings{
		DefaultLanguage: "de",
		FollowupDays:    -1,
		EmailDelay:      -5,
		MaxRetries:      0,
	})
	require.NoError(t, err)

	assert.Equal(t, "en", got.DefaultLanguage)
	assert.Equal(t, 7, got.FollowupDays)
	assert.Equal(t, "Europe/Paris", got.Timezone)
	assert.Equal(t, 2, got.EmailDelay)
	assert.Equal(t, 3, got.MaxRetries)
}

func TestNewStoreRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{broken"), 0o600))

	_, err := NewStore(dir, testDefaults())
	assert.Error(t, err)
}
