package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// keptPunctuation survives normalization; every other non-word,
// non-space rune is removed.
const keptPunctuation = ".,;!?"

// Ellipsis marks a context window truncated at either side.
const Ellipsis = "..."

// isWordRune matches the word characters of the search grammar: letters,
// numbers and underscore.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// Normalize strips every rune that is not a word character, whitespace or
// one of . , ; ! ?, collapses whitespace runs to a single space and trims
// the ends. Text is NFC-composed first so decomposed accents are kept as
// letters. Normalize is idempotent.
func Normalize(text string) string {
	stripped := strings.Map(func(r rune) rune {
		switch {
		case isWordRune(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		case strings.ContainsRune(keptPunctuation, r):
			return r
		}
		return -1
	}, norm.NFC.String(text))

	return strings.Join(strings.Fields(norm.NFC.String(stripped)), " ")
}

// WordCount returns the number of whitespace-delimited tokens in the
// normalized form of text.
func WordCount(text string) int {
	return countWords(Normalize(text))
}

// countWords counts tokens of already-normalized text.
func countWords(normalized string) int {
	return len(strings.Fields(normalized))
}

// Segment splits normalized text into sentence-like units. A boundary is a
// '.' that ends the text or is followed by whitespace, and each unit ends at
// one. Text after the last boundary is dropped; text with no boundary at all
// is a single unit. Empty text yields no units.
func Segment(text string) []string {
	var units []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '.' {
			continue
		}
		if i+1 < len(text) {
			next, _ := utf8.DecodeRuneInString(text[i+1:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		if unit := strings.TrimSpace(text[start : i+1]); unit != "" {
			units = append(units, unit)
		}
		start = i + 1
	}
	if len(units) == 0 {
		if rest := strings.TrimSpace(text); rest != "" {
			units = append(units, rest)
		}
	}
	return units
}

// isBoundary reports whether byte offset pos of text sits on a word
// boundary: exactly one of the runes around it is a word character.
// Positions outside the text count as non-word.
func isBoundary(text string, pos int) bool {
	before, after := false, false
	if pos > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:pos])
		before = isWordRune(r)
	}
	if pos < len(text) {
		r, _ := utf8.DecodeRuneInString(text[pos:])
		after = isWordRune(r)
	}
	return before != after
}

// hasWordRune reports whether s contains at least one word character.
func hasWordRune(s string) bool {
	return strings.IndexFunc(s, isWordRune) >= 0
}

// runesBack returns the byte offset n runes before pos, clamped at 0.
func runesBack(text string, pos, n int) int {
	for ; n > 0 && pos > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(text[:pos])
		pos -= size
	}
	return pos
}

// runesForward returns the byte offset n runes after pos, clamped at len(text).
func runesForward(text string, pos, n int) int {
	for ; n > 0 && pos < len(text); n-- {
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}
	return pos
}

// nextRune returns the offset just past the rune at pos.
func nextRune(text string, pos int) int {
	if pos >= len(text) {
		return pos + 1
	}
	_, size := utf8.DecodeRuneInString(text[pos:])
	return pos + size
}
