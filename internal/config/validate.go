package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Engine.Name) == "" {
		return nil, fmt.Errorf("engine.name must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Audio.Device)) {
	case "", "pulse", "memory":
	default:
		return nil, fmt.Errorf("audio.device must be one of: pulse, memory")
	}
	if cfg.Stream.RequiredTailSegments < 1 {
		return nil, fmt.Errorf("stream.required_tail_segments must be >= 1")
	}
	if cfg.Stream.SilenceThreshold < 0 || cfg.Stream.SilenceThreshold > 1 {
		return nil, fmt.Errorf("stream.silence_threshold must be within [0, 1]")
	}
	if cfg.Stream.CompressionCheckWindow < 0 {
		return nil, fmt.Errorf("stream.compression_check_window must be >= 0")
	}
	if cfg.Stream.CompressionCheckWindow > 0 && cfg.Stream.CompressionRatioThreshold <= 1 {
		return nil, fmt.Errorf("stream.compression_ratio_threshold must be > 1 when the window is enabled")
	}
	if cfg.Stream.PollIntervalMS <= 0 {
		return nil, fmt.Errorf("stream.poll_interval_ms must be > 0")
	}
	if cfg.Stream.LogProbThreshold != nil && *cfg.Stream.LogProbThreshold > 0 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("stream.log_prob_threshold %.2f is positive; average log probabilities are <= 0, so the trigger will fire on every pass", *cfg.Stream.LogProbThreshold),
		})
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Output.Mode))
	switch mode {
	case "stdout":
	case "file":
		if strings.TrimSpace(cfg.Output.Path) == "" {
			return nil, fmt.Errorf("output.path must not be empty when output.mode=file")
		}
	default:
		return nil, fmt.Errorf("output.mode must be one of: stdout, file")
	}

	return warnings, nil
}
