package stream

import "math"

const (
	// minNewAudioSeconds is the minimum amount of unseen audio before a
	// transcription pass is worth its fixed cost.
	minNewAudioSeconds = 1.0

	// energyUnitSeconds is the stream time covered by one relative-energy
	// reading.
	energyUnitSeconds = 0.1
)

// ShouldTranscribe reports whether enough usable new audio has accumulated to
// justify a transcription pass. It is a pure decision: a decline means the
// caller should idle and re-poll, not that anything failed.
func ShouldTranscribe(
	bufferLen int,
	lastBufferSize int,
	sampleRate int,
	energy []float32,
	gateOnSilence bool,
	silenceThreshold float32,
) bool {
	if sampleRate <= 0 {
		return false
	}
	newSamples := bufferLen - lastBufferSize
	if newSamples <= 0 {
		return false
	}
	newSeconds := float64(newSamples) / float64(sampleRate)
	if newSeconds < minNewAudioSeconds {
		return false
	}
	if !gateOnSilence {
		return true
	}
	return voiceDetected(energy, newSeconds, silenceThreshold)
}

// voiceDetected scans the portion of the energy trace covering the new-audio
// window for any reading at or above the threshold. Voice activity detection
// itself lives in the capture device; this only consumes its trace.
func voiceDetected(energy []float32, newSeconds float64, threshold float32) bool {
	if len(energy) == 0 {
		return false
	}
	units := int(math.Ceil(newSeconds / energyUnitSeconds))
	if units > len(energy) {
		units = len(energy)
	}
	for _, level := range energy[len(energy)-units:] {
		if level >= threshold {
			return true
		}
	}
	return false
}
