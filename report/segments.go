package report

import (
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"pdfphrase/search"
)

// Segment is a run of paragraph text, highlighted or not.
type Segment struct {
	Text      string
	Highlight bool
}

// Segments cuts paragraph into alternating plain and highlighted runs. Spans
// may overlap or arrive unsorted; out-of-range spans are clamped.
func Segments(paragraph string, spans []search.Span) []Segment {
	clean := make([]search.Span, 0, len(spans))
	for _, s := range spans {
		s.Start = max(s.Start, 0)
		s.End = min(s.End, len(paragraph))
		if s.Start < s.End {
			clean = append(clean, s)
		}
	}
	slices.SortFunc(clean, func(a, b search.Span) int { return a.Start - b.Start })

	var out []Segment
	pos := 0
	for _, s := range clean {
		if s.End <= pos {
			continue
		}
		start := max(s.Start, pos)
		if start > pos {
			out = append(out, Segment{Text: paragraph[pos:start]})
		}
		out = append(out, Segment{Text: paragraph[start:s.End], Highlight: true})
		pos = s.End
	}
	if pos < len(paragraph) {
		out = append(out, Segment{Text: paragraph[pos:]})
	}
	return out
}

// FileGroup is the matches of one document, in result order.
type FileGroup struct {
	Name    string
	Matches []search.Match
}

// GroupByFile groups matches by document name in first-seen order.
func GroupByFile(matches []search.Match) []FileGroup {
	var groups []FileGroup
	index := make(map[string]int)
	for _, m := range matches {
		name, _ := search.Source(m)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, FileGroup{Name: name})
		}
		groups[i].Matches = append(groups[i].Matches, m)
	}
	return groups
}

// DistinctFiles counts the distinct document paths among matches.
func DistinctFiles(matches []search.Match) int {
	seen := make(map[string]bool)
	for _, m := range matches {
		_, path := search.Source(m)
		seen[path] = true
	}
	return len(seen)
}

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}
