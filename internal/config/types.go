// Package config resolves, parses, validates, and defaults murmur configuration.
package config

// Config is the fully materialized runtime configuration used by murmur.
type Config struct {
	Audio      AudioConfig      `yaml:"audio" envPrefix:"MURMUR_AUDIO_"`
	Engine     EngineConfig     `yaml:"engine" envPrefix:"MURMUR_ENGINE_"`
	Stream     StreamConfig     `yaml:"stream" envPrefix:"MURMUR_STREAM_"`
	Transcript TranscriptConfig `yaml:"transcript" envPrefix:"MURMUR_TRANSCRIPT_"`
	Output     OutputConfig     `yaml:"output" envPrefix:"MURMUR_OUTPUT_"`
	Debug      DebugConfig      `yaml:"debug" envPrefix:"MURMUR_DEBUG_"`
}

// AudioConfig controls the capture device and input-source selection. Device
// "pulse" records from a PulseAudio source; "memory" is the in-process device
// used with the stub engine for development runs with no audio server.
type AudioConfig struct {
	Device   string `yaml:"device" env:"DEVICE"`
	Input    string `yaml:"input" env:"INPUT"`
	Fallback string `yaml:"fallback" env:"FALLBACK"`
}

// EngineConfig selects the transcription decoder.
type EngineConfig struct {
	Name string `yaml:"name" env:"NAME"`
}

// StreamConfig tunes the incremental transcription loop.
type StreamConfig struct {
	RequiredTailSegments      int      `yaml:"required_tail_segments" env:"REQUIRED_TAIL_SEGMENTS"`
	GateOnSilence             bool     `yaml:"gate_on_silence" env:"GATE_ON_SILENCE"`
	SilenceThreshold          float32  `yaml:"silence_threshold" env:"SILENCE_THRESHOLD"`
	CompressionCheckWindow    int      `yaml:"compression_check_window" env:"COMPRESSION_CHECK_WINDOW"`
	CompressionRatioThreshold float64  `yaml:"compression_ratio_threshold" env:"COMPRESSION_RATIO_THRESHOLD"`
	LogProbThreshold          *float64 `yaml:"log_prob_threshold" env:"LOG_PROB_THRESHOLD"`
	PollIntervalMS            int      `yaml:"poll_interval_ms" env:"POLL_INTERVAL_MS"`
}

// TranscriptConfig controls transcript assembly formatting.
type TranscriptConfig struct {
	TrailingSpace       bool `yaml:"trailing_space" env:"TRAILING_SPACE"`
	CapitalizeSentences bool `yaml:"capitalize_sentences" env:"CAPITALIZE_SENTENCES"`
}

// OutputConfig controls where confirmed transcript text is written.
type OutputConfig struct {
	Mode string `yaml:"mode" env:"MODE"`
	Path string `yaml:"path" env:"FILE_PATH"`
}

// DebugConfig controls optional verbose diagnostics.
type DebugConfig struct {
	Verbose bool `yaml:"verbose" env:"VERBOSE"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
