package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

// pronounIPattern matches a standalone lowercase i, including the i in
// contractions like i'm and i'll.
var pronounIPattern = regexp.MustCompile(`\bi\b`)

// capitalizeSentences uppercases the first letter of the text and of every
// sentence that follows a terminal punctuation mark, then fixes the pronoun
// I. Decimal numbers do not open a new sentence.
func capitalizeSentences(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	capitalizeNext := true
	for _, r := range text {
		switch {
		case capitalizeNext && unicode.IsLetter(r):
			r = unicode.ToUpper(r)
			capitalizeNext = false
		case capitalizeNext && unicode.IsDigit(r):
			capitalizeNext = false
		}
		out.WriteRune(r)
		switch r {
		case '.', '!', '?':
			capitalizeNext = true
		}
	}

	return pronounIPattern.ReplaceAllString(out.String(), "I")
}
