package capture

import (
	"math"
	"sync"
)

const (
	// SampleRate is the capture rate for every device in this package.
	SampleRate = 16000

	// energyUnitSamples is one energy reading's worth of audio (100ms).
	energyUnitSamples = SampleRate / 10

	// defaultEnergyLookback is how many trace readings voice-activity
	// decisions look back over (one second of audio).
	defaultEnergyLookback = 10

	// maxEnergyReadings bounds the trace history (five minutes).
	maxEnergyReadings = 3000
)

// sampleBuffer accumulates mono float32 audio and maintains a per-100ms RMS
// energy trace. Readings are stored as raw RMS; consumers get them scaled
// against the loudest frame heard so far, so a quiet microphone still
// produces a usable 0..1 range.
type sampleBuffer struct {
	mu      sync.Mutex
	samples []float32
	energy  []float32
	peak    float32

	frameSumSq float64
	frameFill  int
}

func newSampleBuffer() *sampleBuffer {
	return &sampleBuffer{}
}

// Append adds captured samples and folds them into the energy trace.
func (b *sampleBuffer) Append(batch []float32) {
	if len(batch) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = append(b.samples, batch...)
	for _, s := range batch {
		b.frameSumSq += float64(s) * float64(s)
		b.frameFill++
		if b.frameFill < energyUnitSamples {
			continue
		}
		reading := float32(math.Sqrt(b.frameSumSq / float64(energyUnitSamples)))
		b.frameSumSq = 0
		b.frameFill = 0
		if reading > b.peak {
			b.peak = reading
		}
		b.energy = append(b.energy, reading)
		if len(b.energy) > maxEnergyReadings {
			b.energy = append(b.energy[:0], b.energy[len(b.energy)-maxEnergyReadings:]...)
		}
	}
}

// Len reports buffered sample count.
func (b *sampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Samples returns a snapshot of the buffered audio, oldest first.
func (b *sampleBuffer) Samples() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]float32(nil), b.samples...)
}

// RelativeEnergy returns the trace scaled to the loudest frame seen, newest
// last. All-silence capture yields all-zero readings.
func (b *sampleBuffer) RelativeEnergy() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]float32, len(b.energy))
	if b.peak <= 0 {
		return out
	}
	for i, reading := range b.energy {
		out[i] = reading / b.peak
	}
	return out
}

// Purge drops all but the last keepLast samples, and retires the energy
// readings that covered the dropped audio.
func (b *sampleBuffer) Purge(keepLast int) {
	if keepLast < 0 {
		keepLast = 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if keepLast >= len(b.samples) {
		return
	}
	dropped := len(b.samples) - keepLast
	b.samples = append(b.samples[:0], b.samples[dropped:]...)

	droppedReadings := dropped / energyUnitSamples
	if droppedReadings >= len(b.energy) {
		b.energy = b.energy[:0]
		return
	}
	b.energy = append(b.energy[:0], b.energy[droppedReadings:]...)
}
