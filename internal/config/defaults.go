package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			Device:   "pulse",
			Input:    "default",
			Fallback: "default",
		},
		Engine: EngineConfig{Name: "stub"},
		Stream: StreamConfig{
			RequiredTailSegments:      2,
			GateOnSilence:             false,
			SilenceThreshold:          0.3,
			CompressionCheckWindow:    60,
			CompressionRatioThreshold: 2.4,
			PollIntervalMS:            100,
		},
		Transcript: TranscriptConfig{
			TrailingSpace:       true,
			CapitalizeSentences: true,
		},
		Output: OutputConfig{Mode: "stdout"},
		Debug:  DebugConfig{},
	}
}
