package stream

// Reconciliation is the outcome of folding one fresh segmentation into
// confirmed history.
type Reconciliation struct {
	// Confirmed holds newly confirmed segments, in timestamp order.
	Confirmed []Segment
	// Unconfirmed is the replacement unconfirmed tail.
	Unconfirmed []Segment
	// Watermark is the resulting confirmed-through timestamp.
	Watermark float64
	// Advanced reports whether confirmed text genuinely moved forward.
	Advanced bool
}

// Reconcile splits a fresh full segmentation of the current buffer into newly
// confirmed segments and a held-back unconfirmed tail.
//
// The last holdBack segments are never confirmed: later audio context is most
// likely to revise them. The prefix before the tail is a confirmation
// candidate, committed only when its last segment moves the watermark
// forward; a pass that produces a shorter confirmable prefix than before
// (timing jitter) leaves confirmed history untouched. Committed segments
// already sitting at the tail of confirmed history are skipped rather than
// re-confirmed.
func Reconcile(fresh []Segment, holdBack int, confirmed []Segment, watermark float64) Reconciliation {
	if holdBack < 0 {
		holdBack = 0
	}

	if len(fresh) <= holdBack {
		return Reconciliation{
			Unconfirmed: cloneSegments(fresh),
			Watermark:   watermark,
		}
	}

	split := len(fresh) - holdBack
	candidate := fresh[:split]
	tail := cloneSegments(fresh[split:])

	if candidate[len(candidate)-1].End <= watermark {
		return Reconciliation{
			Unconfirmed: tail,
			Watermark:   watermark,
		}
	}

	recent := confirmedTail(confirmed, len(candidate)+holdBack)
	additions := make([]Segment, 0, len(candidate))
	for _, seg := range candidate {
		if containsSpan(recent, seg) {
			continue
		}
		additions = append(additions, seg)
	}

	return Reconciliation{
		Confirmed:   cloneSegments(additions),
		Unconfirmed: tail,
		Watermark:   candidate[len(candidate)-1].End,
		Advanced:    true,
	}
}

// confirmedTail returns the last n segments of confirmed history.
func confirmedTail(confirmed []Segment, n int) []Segment {
	if len(confirmed) <= n {
		return confirmed
	}
	return confirmed[len(confirmed)-n:]
}

func containsSpan(segments []Segment, seg Segment) bool {
	for _, existing := range segments {
		if existing.SameSpan(seg) {
			return true
		}
	}
	return false
}
