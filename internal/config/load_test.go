package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.yaml"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "murmur", "config.yaml"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "murmur", "config.yaml"), resolved)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingYAMLParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
audio:
  input: elgato
  fallback: default
engine:
  name: stub
stream:
  required_tail_segments: 3
  gate_on_silence: true
  log_prob_threshold: -1.2
output:
  mode: file
  path: /tmp/captions.txt
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "elgato", loaded.Config.Audio.Input)
	require.Equal(t, 3, loaded.Config.Stream.RequiredTailSegments)
	require.True(t, loaded.Config.Stream.GateOnSilence)
	require.NotNil(t, loaded.Config.Stream.LogProbThreshold)
	require.Equal(t, -1.2, *loaded.Config.Stream.LogProbThreshold)
	require.Equal(t, "file", loaded.Config.Output.Mode)

	// Unset fields keep their defaults.
	require.Equal(t, 2.4, loaded.Config.Stream.CompressionRatioThreshold)
	require.Equal(t, 100, loaded.Config.Stream.PollIntervalMS)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audio:\n  input: elgato\n"), 0o600))

	t.Setenv("MURMUR_AUDIO_INPUT", "sony")
	t.Setenv("MURMUR_AUDIO_DEVICE", "memory")
	t.Setenv("MURMUR_STREAM_REQUIRED_TAIL_SEGMENTS", "4")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sony", loaded.Config.Audio.Input)
	require.Equal(t, "memory", loaded.Config.Audio.Device)
	require.Equal(t, 4, loaded.Config.Stream.RequiredTailSegments)
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stream:\n  required_tail_segmants: 3\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audio: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}
