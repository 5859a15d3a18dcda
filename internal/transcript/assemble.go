// Package transcript assembles confirmed transcript segments into display text.
package transcript

import (
	"strings"

	"github.com/murmurapp/murmur/internal/stream"
)

// Options controls transcript assembly formatting behavior.
type Options struct {
	TrailingSpace       bool
	CapitalizeSentences bool
}

// Assemble joins confirmed segments in stream order and applies configured
// normalization.
func Assemble(segments []stream.Segment, opts Options) string {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	return AssembleTexts(texts, opts)
}

// AssembleTexts joins raw segment texts and applies configured normalization.
func AssembleTexts(texts []string, opts Options) string {
	if len(texts) == 0 {
		return ""
	}

	joined := strings.Join(texts, " ")
	normalized := strings.Join(strings.Fields(joined), " ")
	if normalized == "" {
		return ""
	}

	if opts.CapitalizeSentences {
		normalized = capitalizeSentences(normalized)
	}

	if opts.TrailingSpace {
		return normalized + " "
	}
	return normalized
}
