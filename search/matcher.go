package search

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxIntermediate is the default gap allowed between phrase words.
	DefaultMaxIntermediate = 2
	// DefaultContextWindow is the number of runes kept on each side of a
	// flexible match.
	DefaultContextWindow = 50

	// maxRepeat is the largest counted repetition RE2 accepts.
	maxRepeat = 1000
)

// Matcher finds matches in one chunk of normalized text. Implementations
// are safe for concurrent use.
type Matcher interface {
	Name() string
	Match(normalized string) []Match
}

// Exact matches a phrase as whole words, case-insensitively, and reports one
// ExactMatch per sentence that contains it.
type Exact struct {
	phrase string
	re     *regexp.Regexp
}

// NewExact prepares an exact matcher. A phrase with no word characters
// matches nothing.
func NewExact(phrase string) *Exact {
	phrase = Normalize(phrase)
	e := &Exact{phrase: phrase}
	if hasWordRune(phrase) {
		e.re = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
	}
	return e
}

func (e *Exact) Name() string { return "exact" }

// Phrase returns the normalized phrase.
func (e *Exact) Phrase() string { return e.phrase }

func (e *Exact) Match(normalized string) []Match {
	if e.re == nil {
		return nil
	}
	var out []Match
	for _, unit := range Segment(normalized) {
		offsets := e.positions(unit)
		if len(offsets) == 0 {
			continue
		}
		positions := make([]int, len(offsets))
		for i, off := range offsets {
			positions[i] = utf8.RuneCountInString(unit[:off])
		}
		out = append(out, ExactMatch{Record: Record{
			Paragraph: unit,
			Count:     len(positions),
			Positions: positions,
		}})
	}
	return out
}

// positions returns the start byte offset of every whole-word occurrence. A
// candidate without boundaries on both sides is dropped and the scan resumes
// one rune after its start.
func (e *Exact) positions(unit string) []int {
	var found []int
	pos := 0
	for pos <= len(unit) {
		loc := e.re.FindStringIndex(unit[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if isBoundary(unit, start) && isBoundary(unit, end) {
			found = append(found, start)
			pos = end
			continue
		}
		pos = nextRune(unit, start)
	}
	return found
}

// FindExact finds the phrase in text and returns one match per sentence
// containing it.
func FindExact(text, phrase string) []Match {
	return NewExact(phrase).Match(Normalize(text))
}

// Flexible matches the phrase words in order with 1..MaxIntermediate other
// words between each consecutive pair.
type Flexible struct {
	phrase string
	words  []string
	gap    int
	window int
	re     *regexp.Regexp
	err    error
}

// FlexibleOption configures a Flexible matcher.
type FlexibleOption func(*Flexible)

// WithMaxIntermediate sets the largest number of words allowed between two
// consecutive phrase words.
func WithMaxIntermediate(n int) FlexibleOption {
	return func(f *Flexible) { f.gap = n }
}

// WithContextWindow sets the number of runes kept on each side of a match.
func WithContextWindow(n int) FlexibleOption {
	return func(f *Flexible) { f.window = n }
}

// NewFlexible prepares a flexible matcher. The returned matcher is always
// usable; if the phrase has fewer than two words it matches nothing and Err
// reports ErrUsage.
func NewFlexible(phrase string, opts ...FlexibleOption) *Flexible {
	f := &Flexible{
		phrase: Normalize(phrase),
		gap:    DefaultMaxIntermediate,
		window: DefaultContextWindow,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.gap = min(max(f.gap, 1), maxRepeat)
	f.window = max(f.window, 0)

	f.words = strings.Fields(f.phrase)
	if len(f.words) < 2 {
		f.err = fmt.Errorf("%w: flexible search needs at least two words, got %d", ErrUsage, len(f.words))
		return f
	}
	f.re = regexp.MustCompile(flexiblePattern(f.words, f.gap))
	return f
}

// flexiblePattern joins the quoted words with a gap of 1..gap intervening
// words. The match proper is group 1; the trailing group keeps the last word
// from ending inside a longer word.
func flexiblePattern(words []string, gap int) string {
	const word, sep = `[\p{L}\p{N}_]`, `[^\p{L}\p{N}_]`
	between := fmt.Sprintf(`(?:%s+%s+){1,%d}%s+`, sep, word, gap, sep)

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}

	guard := `(?:` + sep + `|$)`
	if !endsWithWordRune(words[len(words)-1]) {
		guard = word
	}
	return `(?i)(` + strings.Join(quoted, between) + `)` + guard
}

// endsWithWordRune reports whether the last rune of s is a word character.
func endsWithWordRune(s string) bool {
	return s != "" && isBoundary(s, len(s))
}

func (f *Flexible) Name() string { return "flexible" }

// Phrase returns the normalized phrase.
func (f *Flexible) Phrase() string { return f.phrase }

// Err returns the usage diagnostic for an unusable phrase, or nil.
func (f *Flexible) Err() error { return f.err }

func (f *Flexible) Match(normalized string) []Match {
	if f.re == nil {
		return nil
	}
	var out []Match
	pos := 0
	for pos <= len(normalized) {
		loc := f.re.FindStringSubmatchIndex(normalized[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2], pos+loc[3]
		if !isBoundary(normalized, start) {
			pos = nextRune(normalized, start)
			continue
		}
		// The literal phrase is already covered by exact search.
		if !strings.EqualFold(normalized[start:end], f.phrase) {
			out = append(out, f.record(normalized, start, end))
		}
		pos = end
	}
	return out
}

// record builds the context window around text[start:end].
func (f *Flexible) record(text string, start, end int) FlexibleMatch {
	from := runesBack(text, start, f.window)
	to := runesForward(text, end, f.window)

	prefix, suffix := "", ""
	if from > 0 {
		prefix = Ellipsis
	}
	if to < len(text) {
		suffix = Ellipsis
	}

	return FlexibleMatch{
		Record: Record{
			Paragraph: prefix + text[from:to] + suffix,
			Count:     1,
			Positions: []int{utf8.RuneCountInString(prefix + text[from:start])},
		},
		Original: text[start:end],
	}
}

// FindFlexible searches text for the phrase with gaps of up to
// maxIntermediate words. A phrase of fewer than two words yields no matches
// and an error wrapping ErrUsage.
func FindFlexible(text, phrase string, maxIntermediate int) ([]Match, error) {
	f := NewFlexible(phrase, WithMaxIntermediate(maxIntermediate))
	if err := f.Err(); err != nil {
		return nil, err
	}
	return f.Match(Normalize(text)), nil
}

// Span is a half-open byte range of a highlighted phrase within a paragraph.
type Span struct {
	Start, End int
}

// Spans returns the highlight ranges of a match within its paragraph: the
// matched original for flexible matches and each phrase occurrence for
// exact ones.
func Spans(m Match, phrase string) []Span {
	rec := m.Base()
	switch v := Unwrap(m).(type) {
	case FlexibleMatch:
		spans := make([]Span, 0, len(rec.Positions))
		for _, pos := range rec.Positions {
			p, ok := byteOffset(rec.Paragraph, pos)
			if ok && p+len(v.Original) <= len(rec.Paragraph) {
				spans = append(spans, Span{p, p + len(v.Original)})
			}
		}
		return spans
	case ExactMatch:
		phrase = Normalize(phrase)
		if !hasWordRune(phrase) {
			return nil
		}
		re := regexp.MustCompile(`^(?i)` + regexp.QuoteMeta(phrase))
		spans := make([]Span, 0, len(rec.Positions))
		for _, pos := range rec.Positions {
			p, ok := byteOffset(rec.Paragraph, pos)
			if !ok {
				continue
			}
			if loc := re.FindStringIndex(rec.Paragraph[p:]); loc != nil {
				spans = append(spans, Span{p, p + loc[1]})
			}
		}
		return spans
	}
	return nil
}

// byteOffset converts a rune offset into s to a byte offset.
func byteOffset(s string, runes int) (int, bool) {
	if runes < 0 {
		return 0, false
	}
	for i := range s {
		if runes == 0 {
			return i, true
		}
		runes--
	}
	return len(s), runes == 0
}
