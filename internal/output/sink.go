// Package output delivers confirmed transcript text to its configured sink.
package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/murmurapp/murmur/internal/config"
)

// Sink appends confirmed transcript text to stdout or a caption file. Writes
// arrive from the streaming observer, so they are serialized here rather
// than trusting the caller.
type Sink struct {
	log *slog.Logger

	mu     sync.Mutex
	out    io.Writer
	file   *os.File
	closed bool
}

// NewSink builds the sink selected by output config. stdout is the writer
// used in stdout mode, injectable for tests.
func NewSink(cfg config.OutputConfig, stdout io.Writer, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	switch cfg.Mode {
	case "", "stdout":
		return &Sink{log: logger, out: stdout}, nil
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("ensure caption dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open caption file %q: %w", cfg.Path, err)
		}
		return &Sink{log: logger, out: f, file: f}, nil
	default:
		return nil, fmt.Errorf("unknown output mode %q", cfg.Mode)
	}
}

// Write appends already-formatted transcript text. Empty writes are dropped.
func (s *Sink) Write(text string) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("write to closed sink")
	}
	if _, err := io.WriteString(s.out, text); err != nil {
		return fmt.Errorf("write transcript output: %w", err)
	}
	return nil
}

// Close releases the caption file if one is open. Stdout sinks close to a
// no-op.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
