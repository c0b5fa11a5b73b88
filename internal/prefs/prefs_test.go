package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/intakedesk/internal/model"
)

func TestStore_MissingFileGivesDefaults(t *testing.T) {
	t.Parallel()

	p, err := New(t.TempDir()).Load()
	require.NoError(t, err)
	require.Equal(t, Defaults(), p)
}

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()

	s := New(filepath.Join(t.TempDir(), "nested"))
	want := model.Preferences{DarkMode: true, MapsAPIKey: "key", ActiveTab: "payment", KeepInitials: true}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)

	raw, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "mapsApiKey: key")
}

func TestStore_PartialAndBrokenFiles(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())
	require.NoError(t, os.WriteFile(s.Path, []byte("darkMode: true\n"), 0o600))
	p, err := s.Load()
	require.NoError(t, err)
	require.True(t, p.DarkMode)
	require.Equal(t, DefaultTab, p.ActiveTab)

	require.NoError(t, os.WriteFile(s.Path, []byte("darkMode: [\n"), 0o600))
	p, err = s.Load()
	require.Error(t, err)
	require.Equal(t, Defaults(), p)
}
