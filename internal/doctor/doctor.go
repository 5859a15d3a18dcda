// Package doctor runs runtime readiness diagnostics for config, environment,
// audio, and the transcription engine.
package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/murmurapp/murmur/internal/capture"
	"github.com/murmurapp/murmur/internal/config"
	"github.com/murmurapp/murmur/internal/engine"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("%q not found; defaults in effect", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})
	for _, warning := range cfg.Warnings {
		checks = append(checks, Check{Name: "config.warning", Pass: true, Message: warning.Message})
	}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available for the control socket", "XDG_RUNTIME_DIR is empty; the control socket has nowhere to live"))

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkEngine(cfg.Config))
	checks = append(checks, checkOutput(cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkAudioSelection runs live source selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	if strings.EqualFold(strings.TrimSpace(cfg.Audio.Device), "memory") {
		return Check{Name: "audio.source", Pass: true, Message: "memory device configured; no audio server needed"}
	}
	selection, err := capture.SelectSource(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.source", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Source.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.source", Pass: true, Message: message}
}

// checkEngine constructs the configured engine to catch unknown names early.
func checkEngine(cfg config.Config) Check {
	eng, err := engine.New(cfg.Engine.Name, nil)
	if err != nil {
		return Check{Name: "engine", Pass: false, Message: err.Error()}
	}
	_ = eng.Close()
	return Check{Name: "engine", Pass: true, Message: fmt.Sprintf("engine %q is ready", cfg.Engine.Name)}
}

// checkOutput verifies the caption file location is writable when configured.
func checkOutput(cfg config.Config) Check {
	if cfg.Output.Mode != "file" {
		return Check{Name: "output", Pass: true, Message: "writing to stdout"}
	}

	f, err := os.OpenFile(cfg.Output.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Check{Name: "output", Pass: false, Message: fmt.Sprintf("caption file not writable: %v", err)}
	}
	_ = f.Close()
	return Check{Name: "output", Pass: true, Message: fmt.Sprintf("caption file %q is writable", cfg.Output.Path)}
}
