package stream

import "testing"

func TestShouldTranscribeNewAudioThreshold(t *testing.T) {
	const rate = 16000

	cases := []struct {
		name     string
		buffer   int
		lastSize int
		want     bool
	}{
		{name: "empty buffer", buffer: 0, lastSize: 0, want: false},
		{name: "half second", buffer: rate / 2, lastSize: 0, want: false},
		{name: "just under one second", buffer: rate - 1, lastSize: 0, want: false},
		{name: "exactly one second", buffer: rate, lastSize: 0, want: true},
		{name: "1.01 seconds", buffer: rate + rate/100, lastSize: 0, want: true},
		{name: "old audio already consumed", buffer: 3 * rate, lastSize: 3*rate - rate/2, want: false},
		{name: "one new second after prior pass", buffer: 3 * rate, lastSize: 2 * rate, want: true},
		{name: "buffer shrank below last size", buffer: rate, lastSize: 2 * rate, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShouldTranscribe(tc.buffer, tc.lastSize, rate, nil, false, 0.3)
			if got != tc.want {
				t.Fatalf("ShouldTranscribe(%d, %d) = %v, want %v", tc.buffer, tc.lastSize, got, tc.want)
			}
		})
	}
}

func TestShouldTranscribeSilenceGate(t *testing.T) {
	const rate = 16000
	quiet := []float32{0.01, 0.02, 0.01, 0.02, 0.01, 0.05, 0.02, 0.01, 0.02, 0.01}
	speech := []float32{0.01, 0.02, 0.01, 0.02, 0.01, 0.05, 0.02, 0.45, 0.6, 0.3}

	if ShouldTranscribe(2*rate, 0, rate, quiet, true, 0.3) {
		t.Fatal("expected decline for quiet trace")
	}
	if !ShouldTranscribe(2*rate, 0, rate, speech, true, 0.3) {
		t.Fatal("expected pass for speech trace")
	}
	if ShouldTranscribe(2*rate, 0, rate, nil, true, 0.3) {
		t.Fatal("expected decline for empty trace when gating enabled")
	}
	if !ShouldTranscribe(2*rate, 0, rate, quiet, false, 0.3) {
		t.Fatal("expected pass when gating disabled regardless of trace")
	}
}

func TestVoiceDetectedScansOnlyNewWindow(t *testing.T) {
	// Speech reading is outside the 1-second (10 readings) new-audio window.
	trace := make([]float32, 30)
	trace[5] = 0.9

	if voiceDetected(trace, 1.0, 0.3) {
		t.Fatal("speech outside the new-audio window must not count")
	}
	if !voiceDetected(trace, 3.0, 0.3) {
		t.Fatal("wider window covering the reading must count")
	}
}

func TestShouldTranscribeInvalidSampleRate(t *testing.T) {
	if ShouldTranscribe(16000, 0, 0, nil, false, 0) {
		t.Fatal("zero sample rate must decline")
	}
}
