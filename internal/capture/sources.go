// Package capture handles input source discovery, selection, and PCM capture
// into a bounded sample buffer with a per-100ms energy trace.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Source describes one Pulse input source surfaced to murmur.
type Source struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved capture source plus optional fallback warning context.
type Selection struct {
	Source   Source
	Warning  string
	Fallback bool
}

func newPulseClient() (*pulse.Client, error) {
	return pulse.NewClient(
		pulse.ClientApplicationName("murmur"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
}

// ListSources returns available Pulse input sources with default/availability metadata.
func ListSources(_ context.Context) ([]Source, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	sources := make([]Source, 0, len(sourceInfos))
	for _, info := range sourceInfos {
		if info == nil {
			continue
		}
		sources = append(sources, Source{
			ID:          info.SourceName,
			Description: info.Device,
			State:       sourceStateString(info.State),
			Available:   sourceAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == defaultID,
		})
	}
	return sources, nil
}

// SelectSource resolves audio.input/audio.fallback preferences against live sources.
func SelectSource(ctx context.Context, input string, fallback string) (Selection, error) {
	sources, err := ListSources(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectSourceFromList(sources, input, fallback)
}

// selectSourceFromList applies selection policy to a pre-fetched source list.
func selectSourceFromList(sources []Source, input string, fallback string) (Selection, error) {
	if len(sources) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	var (
		defaultSource *Source
		byInput       *Source
		byFallback    *Source
	)

	input = strings.TrimSpace(strings.ToLower(input))
	fallback = strings.TrimSpace(strings.ToLower(fallback))

	for i := range sources {
		src := &sources[i]
		if src.Default {
			defaultSource = src
		}
		if byInput == nil && input != "" && input != "default" && sourceMatches(*src, input) {
			byInput = src
		}
		if byFallback == nil && fallback != "" && fallback != "default" && sourceMatches(*src, fallback) {
			byFallback = src
		}
	}

	chooseDefault := func() (*Source, error) {
		if defaultSource == nil {
			return nil, errors.New("default audio source is unavailable")
		}
		return defaultSource, nil
	}

	selectPrimary := func() (*Source, error) {
		if input == "" || input == "default" {
			return chooseDefault()
		}
		if byInput != nil {
			return byInput, nil
		}
		return nil, fmt.Errorf("audio.input %q did not match any device", input)
	}

	primary, err := selectPrimary()
	if err != nil {
		return Selection{}, err
	}
	if primary.Available && !primary.Muted {
		return Selection{Source: *primary}, nil
	}

	primaryReason := "unavailable"
	if primary.Muted {
		primaryReason = "muted"
	}

	fallbackSource := primary
	if fallback != "" && fallback != "default" {
		if byFallback == nil {
			return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, primaryReason, fallback)
		}
		fallbackSource = byFallback
	} else {
		d, derr := chooseDefault()
		if derr != nil {
			return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: %w", primary.ID, primaryReason, derr)
		}
		fallbackSource = d
	}

	if !fallbackSource.Available {
		return Selection{}, fmt.Errorf("audio fallback device %q is not available", fallbackSource.ID)
	}
	if fallbackSource.Muted {
		return Selection{}, fmt.Errorf("audio fallback device %q is muted", fallbackSource.ID)
	}

	return Selection{
		Source:   *fallbackSource,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, primaryReason, fallbackSource.ID),
		Fallback: primary.ID != fallbackSource.ID,
	}, nil
}

// sourceMatches reports whether a search term matches a source id or description.
func sourceMatches(source Source, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(source.ID)
	desc := strings.ToLower(source.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
