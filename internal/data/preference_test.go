package data

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLitePreferenceRepo_TogglePersists(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "prefs.db")

	prefs, err := NewPreferenceRepo(dbPath)
	require.NoError(t, err)

	on, err := prefs.AutoTranslate(ctx, "ou_alice")
	require.NoError(t, err)
	require.False(t, on)

	on, err = prefs.ToggleAutoTranslate(ctx, "ou_alice")
	require.NoError(t, err)
	require.True(t, on)
	require.NoError(t, prefs.Close())

	reopened, err := NewPreferenceRepo(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	on, err = reopened.AutoTranslate(ctx, "ou_alice")
	require.NoError(t, err)
	require.True(t, on, "flag survives reopening the database")

	on, err = reopened.ToggleAutoTranslate(ctx, "ou_alice")
	require.NoError(t, err)
	require.False(t, on)

	on, err = reopened.AutoTranslate(ctx, "ou_bob")
	require.NoError(t, err)
	require.False(t, on)
}

func TestMemoryPreferenceRepo(t *testing.T) {
	ctx := context.Background()
	prefs, err := NewPreferenceRepo("")
	require.NoError(t, err)

	on, err := prefs.ToggleAutoTranslate(ctx, "ou_alice")
	require.NoError(t, err)
	require.True(t, on)

	on, err = prefs.AutoTranslate(ctx, "ou_bob")
	require.NoError(t, err)
	require.False(t, on)

	require.NoError(t, prefs.Close())
}

func TestNewRepositories(t *testing.T) {
	cfg := testConfig()
	cfg.DeepLXURLs = []string{"https://a.example.com/translate"}
	cfg.PrefsDBPath = filepath.Join(t.TempDir(), "prefs.db")

	repos, err := NewRepositories(cfg)
	require.NoError(t, err)
	require.Len(t, repos.Translators, 1)
	require.NotNil(t, repos.Utterance)
	require.NoError(t, repos.Close())
}
