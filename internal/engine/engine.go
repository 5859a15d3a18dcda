// Package engine defines the transcription decoder contract and a stub
// implementation used by tests and the development pipeline.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/murmurapp/murmur/internal/stream"
)

// Engine is the decoder the application wires into the streaming loop. It
// extends the loop's minimal contract with lifecycle management.
type Engine interface {
	stream.Engine
	Close() error
}

// New constructs the engine selected by name. "stub" is the only built-in;
// real decoders register here as they land.
func New(name string, logger *slog.Logger) (Engine, error) {
	switch name {
	case "", "stub":
		return NewStub(logger), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (supported: stub)", name)
	}
}
