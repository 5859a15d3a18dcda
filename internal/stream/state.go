// Package stream implements the incremental transcription loop: deciding when
// enough new audio justifies a pass, reconciling fresh segments against
// confirmed history, and keeping the retained audio window bounded.
package stream

// Segment is one timestamped span of transcribed audio. Start and End are in
// absolute stream-seconds, not pass-relative. Segments are immutable once
// produced by the engine.
type Segment struct {
	Start  float64
	End    float64
	Text   string
	Tokens []int
}

// SameSpan reports whether two segments describe the same span of speech.
// Token sequences are deliberately excluded: a fallback re-decode may reach
// identical text through different tokens.
func (s Segment) SameSpan(other Segment) bool {
	return s.Start == other.Start && s.End == other.End && s.Text == other.Text
}

// State is the streaming progress record. The controller goroutine is its
// only writer; observers and IPC consumers receive Clone copies.
type State struct {
	// Recording is true between a granted Start and loop exit.
	Recording bool

	// CurrentFallbacks counts decode retries seen in the in-flight pass.
	CurrentFallbacks int

	// LastBufferSize is the sample count consumed as of the last completed
	// pass, clamped down whenever the capture buffer is purged.
	LastBufferSize int

	// ConfirmedThrough is the watermark: confirmed transcript covers audio up
	// to this timestamp. It never decreases.
	ConfirmedThrough float64

	// BufferEnergy is the most recent relative energy trace, refreshed by the
	// capture callback. One reading covers 100ms, newest last.
	BufferEnergy []float32

	// CurrentText is the cumulative provisional text of the in-flight pass.
	CurrentText string

	// UnconfirmedText is the text of the unconfirmed tail after the most
	// recent completed pass.
	UnconfirmedText string

	// DiscardedText records provisional hypotheses the engine abandoned
	// without a fallback, oldest first.
	DiscardedText []string

	// ConfirmedSegments is append-only; entries are never mutated or removed.
	ConfirmedSegments []Segment

	// UnconfirmedSegments is fully replaced on every pass and always reflects
	// the tail of the latest segmentation, never a mix of passes.
	UnconfirmedSegments []Segment
}

// Clone returns a deep copy safe to hand outside the controller goroutine.
func (s State) Clone() State {
	out := s
	out.BufferEnergy = append([]float32(nil), s.BufferEnergy...)
	out.DiscardedText = append([]string(nil), s.DiscardedText...)
	out.ConfirmedSegments = cloneSegments(s.ConfirmedSegments)
	out.UnconfirmedSegments = cloneSegments(s.UnconfirmedSegments)
	return out
}

// NewlyConfirmed returns the confirmed segments present in curr but not in
// prev. Confirmed history is append-only, so a length comparison suffices.
func NewlyConfirmed(prev, curr State) []Segment {
	if len(curr.ConfirmedSegments) <= len(prev.ConfirmedSegments) {
		return nil
	}
	return cloneSegments(curr.ConfirmedSegments[len(prev.ConfirmedSegments):])
}

func cloneSegments(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	for i, seg := range segments {
		out[i] = seg
		out[i].Tokens = append([]int(nil), seg.Tokens...)
	}
	return out
}
