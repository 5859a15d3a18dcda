package stream

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
)

// Verdict is an early-stop opinion consulted while a decode pass is still
// running. The zero value means "no opinion, keep decoding"; there is
// deliberately no force-continue signal.
type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictAbort
)

// EarlyStop is a per-pass circuit breaker. It runs on every intermediate
// token emission, so both triggers are cheap and side-effect free.
//
// The compression trigger fires when the trailing token window becomes too
// compressible: degenerate repetition loops compress far better than speech.
// The log-probability trigger fires when the decode's average confidence
// falls below the configured floor. Either trigger aborts.
type EarlyStop struct {
	// CompressionCheckWindow is the sliding tail length in tokens. The
	// trigger is only evaluated once the decode has produced more tokens
	// than this.
	CompressionCheckWindow int

	// CompressionRatioThreshold aborts when the window's raw/compressed byte
	// ratio exceeds it. Zero disables the trigger.
	CompressionRatioThreshold float64

	// LogProbThreshold aborts when the decode's average log-probability falls
	// below it. Nil disables the trigger.
	LogProbThreshold *float64
}

// Consult returns VerdictAbort when the in-flight decode should be abandoned
// and VerdictNone when it has no opinion yet.
func (h EarlyStop) Consult(tokens []int, avgLogProb *float64) Verdict {
	if h.CompressionCheckWindow > 0 &&
		h.CompressionRatioThreshold > 0 &&
		len(tokens) > h.CompressionCheckWindow {
		window := tokens[len(tokens)-h.CompressionCheckWindow:]
		if compressionRatio(window) > h.CompressionRatioThreshold {
			return VerdictAbort
		}
	}
	if h.LogProbThreshold != nil && avgLogProb != nil && *avgLogProb < *h.LogProbThreshold {
		return VerdictAbort
	}
	return VerdictNone
}

// compressionRatio measures repetitiveness of a token window as raw byte size
// over flate-compressed size. Tokens are rendered as little-endian uint32 so
// repeated token runs become repeated byte patterns.
func compressionRatio(tokens []int) float64 {
	if len(tokens) == 0 {
		return 0
	}

	raw := make([]byte, 0, len(tokens)*4)
	var scratch [4]byte
	for _, token := range tokens {
		binary.LittleEndian.PutUint32(scratch[:], uint32(token))
		raw = append(raw, scratch[:]...)
	}

	var compressed bytes.Buffer
	writer, err := flate.NewWriter(&compressed, flate.BestSpeed)
	if err != nil {
		return 0
	}
	if _, err := writer.Write(raw); err != nil {
		return 0
	}
	if err := writer.Close(); err != nil {
		return 0
	}
	if compressed.Len() == 0 {
		return 0
	}
	return float64(len(raw)) / float64(compressed.Len())
}
