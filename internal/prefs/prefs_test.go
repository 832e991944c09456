package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAutoRefreshDefaultsOn(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "atlas.db"))
	require.NoError(t, err)
	defer s.Close()

	on, err := s.AutoRefresh()
	require.NoError(t, err)
	require.True(t, on)
}

func TestAutoRefreshPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "atlas.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetAutoRefresh(false))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	on, err := s.AutoRefresh()
	require.NoError(t, err)
	require.False(t, on)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "atlas.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.SetAutoRefresh(true), ErrClosed)
	_, err = s.AutoRefresh()
	require.ErrorIs(t, err, ErrClosed)
}
