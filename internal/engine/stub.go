package engine

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/murmurapp/murmur/internal/stream"
)

// stubWords cycles as segment text so successive runs produce a readable,
// deterministic transcript.
var stubWords = []string{
	"the", "quick", "brown", "fox", "jumps", "over", "a", "lazy", "dog",
	"while", "nobody", "watches", "and", "nothing", "happens",
}

const (
	stubSegmentSeconds = 2.0
	stubTailWindow     = 4
)

// Stub produces deterministic transcripts without a model. Each call emits
// one new fixed-length segment and re-emits the recent tail, so downstream
// reconciliation sees the same overlapping segmentation a real decoder
// produces when it re-reads buffered audio.
type Stub struct {
	log *slog.Logger

	mu      sync.Mutex
	emitted []stream.Segment
}

// NewStub returns a scripted engine. A nil logger is safe.
func NewStub(logger *slog.Logger) *Stub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Stub{log: logger.With("component", "engine.stub")}
}

// Close implements the Engine interface.
func (e *Stub) Close() error {
	return nil
}

// Transcribe implements the Engine interface. Progress is delivered once per
// segment in the result; an abort verdict truncates the result at the segment
// that triggered it, the way a real decoder abandons a bad decode mid-pass.
func (e *Stub) Transcribe(ctx context.Context, samples []float32, onProgress stream.ProgressFunc) (stream.Result, error) {
	if err := ctx.Err(); err != nil {
		return stream.Result{}, err
	}
	if len(samples) == 0 {
		return stream.Result{}, nil
	}

	e.mu.Lock()
	next := e.nextSegmentLocked()
	e.emitted = append(e.emitted, next)
	fresh := append([]stream.Segment(nil), tail(e.emitted, stubTailWindow)...)
	e.mu.Unlock()

	e.log.Debug("stub pass", "samples", len(samples), "segments", len(fresh))

	var texts []string
	var tokens []int
	for i, seg := range fresh {
		texts = append(texts, seg.Text)
		tokens = append(tokens, seg.Tokens...)
		if onProgress == nil {
			continue
		}
		verdict := onProgress(stream.Progress{
			Text:   strings.Join(texts, " "),
			Tokens: append([]int(nil), tokens...),
		})
		if verdict == stream.VerdictAbort {
			return stream.Result{Segments: fresh[:i+1]}, nil
		}
	}
	return stream.Result{Segments: fresh}, nil
}

// nextSegmentLocked scripts the next segment in stream order.
func (e *Stub) nextSegmentLocked() stream.Segment {
	i := len(e.emitted)
	word := stubWords[i%len(stubWords)]
	start := float64(i) * stubSegmentSeconds
	return stream.Segment{
		Start:  start,
		End:    start + stubSegmentSeconds,
		Text:   word,
		Tokens: []int{wordToken(word)},
	}
}

func tail(segments []stream.Segment, n int) []stream.Segment {
	if len(segments) <= n {
		return segments
	}
	return segments[len(segments)-n:]
}

// wordToken derives a stable synthetic token ID from a word.
func wordToken(word string) int {
	h := 2166136261
	for i := 0; i < len(word); i++ {
		h ^= int(word[i])
		h *= 16777619
		h &= 0x7fffffff
	}
	return h
}
