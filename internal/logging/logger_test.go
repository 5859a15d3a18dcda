package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateDirUsesXDGStateHome(t *testing.T) {
	xdgStateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("HOME", t.TempDir())

	dir, err := stateDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdgStateHome, "murmur"), dir)
}

func TestStateDirFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", home)

	dir, err := stateDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state", "murmur"), dir)
}

func TestNewWritesTaggedJSONLines(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	runtime, err := New(false)
	require.NoError(t, err)

	runtime.Logger.Info("session opened", "session_id", "abc")
	runtime.Logger.Debug("suppressed at info level")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"msg":"session opened"`)
	require.Contains(t, string(contents), `"session_id":"abc"`)
	require.Contains(t, string(contents), `"app":"murmur"`)
	require.NotContains(t, string(contents), "suppressed at info level")

	stat, err := os.Stat(runtime.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	runtime, err := New(true)
	require.NoError(t, err)

	runtime.Logger.Debug("buffer purge", "removed_units", 4)
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"msg":"buffer purge"`)
	require.Contains(t, string(contents), `"removed_units":4`)
}

func TestNewAppendsAcrossSessions(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	first, err := New(false)
	require.NoError(t, err)
	first.Logger.Info("first session")
	require.NoError(t, first.Close())

	second, err := New(false)
	require.NoError(t, err)
	second.Logger.Info("second session")
	require.NoError(t, second.Close())

	contents, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "first session")
	require.Contains(t, string(contents), "second session")
}
