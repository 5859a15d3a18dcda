package stream

// RetainSamples computes how many trailing samples must stay buffered after a
// completed pass. The retained window is anchored on context: the time span
// still covered by the unconfirmed tail, plus the voice-activity detector's
// own look-back requirement (lookbackUnits readings of 100ms each). Audio
// older than that is confirmed and safe to purge.
//
// Timing jitter is expected, not exceptional: a tail whose timestamps run
// backwards clamps to zero span instead of failing.
func RetainSamples(unconfirmed []Segment, lookbackUnits int, sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}

	var span float64
	if len(unconfirmed) > 0 {
		span = unconfirmed[len(unconfirmed)-1].End - unconfirmed[0].Start
		if span < 0 {
			span = 0
		}
	}

	lookback := float64(lookbackUnits) * energyUnitSeconds
	if lookback < 0 {
		lookback = 0
	}

	return int((span + lookback) * float64(sampleRate))
}
