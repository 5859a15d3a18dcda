package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/murmurapp/murmur/internal/config"
)

func TestSinkStdoutMode(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewSink(config.OutputConfig{Mode: "stdout"}, &buf, nil)
	require.NoError(t, err)

	require.NoError(t, sink.Write("hello "))
	require.NoError(t, sink.Write("world "))
	require.NoError(t, sink.Write(""))
	require.NoError(t, sink.Close())

	require.Equal(t, "hello world ", buf.String())
}

func TestSinkFileModeAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions", "out.txt")

	sink, err := NewSink(config.OutputConfig{Mode: "file", Path: path}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Write("first "))
	require.NoError(t, sink.Close())

	sink, err = NewSink(config.OutputConfig{Mode: "file", Path: path}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Write("second "))
	require.NoError(t, sink.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first second ", string(contents))
}

func TestSinkUnknownMode(t *testing.T) {
	_, err := NewSink(config.OutputConfig{Mode: "clipboard"}, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown output mode")
}

func TestSinkWriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewSink(config.OutputConfig{}, &buf, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	require.Error(t, sink.Write("late"))
	require.Empty(t, buf.String())
}
