package search

import (
	"context"
	"fmt"
)

// PageChunk is a contiguous range of document pages processed as one unit of
// work. StartPage is 0-based and EndPage is exclusive (clamped to the
// document length).
type PageChunk struct {
	StartPage int
	EndPage   int
	Text      string
}

// PageRange formats the chunk range as "start-end".
func (c PageChunk) PageRange() string {
	return fmt.Sprintf("%d-%d", c.StartPage, c.EndPage)
}

// ChunkSource turns a document path into page chunks.
type ChunkSource interface {
	Extract(ctx context.Context, path string) ([]PageChunk, error)
}

// ProgressFunc is an optional callback to report progress like: stage, processed, total, label
type ProgressFunc func(stage string, processed, total int, label string)

// Record holds the fields every match carries. Positions are character
// (rune) offsets into Paragraph; Spans converts them to byte ranges. PageRange and Pages are stamped by the dispatcher from the
// chunk the match was found in.
type Record struct {
	Paragraph string
	Count     int
	Positions []int
	PageRange string
	Pages     [2]int
}

// Match is one reported occurrence (or a same-sentence cluster of exact
// occurrences). Implementations are ExactMatch, FlexibleMatch and
// SourcedMatch; values are read-only once a dispatcher returns them.
type Match interface {
	Base() Record
	isMatch()
}

// ExactMatch is produced by the exact matcher.
type ExactMatch struct {
	Record
}

// FlexibleMatch is produced by the flexible matcher. Original is the literal
// substring that matched the gapped pattern.
type FlexibleMatch struct {
	Record
	Original string
}

// SourcedMatch tags a match with the document it came from.
type SourcedMatch struct {
	Match
	PDFName string
	PDFPath string
}

func (m ExactMatch) Base() Record    { return m.Record }
func (m FlexibleMatch) Base() Record { return m.Record }

func (ExactMatch) isMatch()    {}
func (FlexibleMatch) isMatch() {}

// Unwrap returns the innermost matcher-produced match, stripping any
// document tagging.
func Unwrap(m Match) Match {
	for {
		s, ok := m.(SourcedMatch)
		if !ok {
			return m
		}
		m = s.Match
	}
}

// Source returns the document name and path of a match, or empty strings
// for single-document results.
func Source(m Match) (name, path string) {
	if s, ok := m.(SourcedMatch); ok {
		return s.PDFName, s.PDFPath
	}
	return "", ""
}

// Original returns the matched substring of a flexible match, or "" otherwise.
func Original(m Match) string {
	if f, ok := Unwrap(m).(FlexibleMatch); ok {
		return f.Original
	}
	return ""
}

// withPages returns a copy of m stamped with the chunk's provenance.
func withPages(m Match, c PageChunk) Match {
	stamp := func(r Record) Record {
		r.PageRange = c.PageRange()
		r.Pages = [2]int{c.StartPage, c.EndPage}
		return r
	}
	switch v := m.(type) {
	case ExactMatch:
		v.Record = stamp(v.Record)
		return v
	case FlexibleMatch:
		v.Record = stamp(v.Record)
		return v
	case SourcedMatch:
		v.Match = withPages(v.Match, c)
		return v
	default:
		return m
	}
}

// Result is the aggregate outcome of one search run. TotalWords is the sum
// of per-chunk word counts of the normalized text.
type Result struct {
	TotalWords int
	Matches    []Match
	Stats      SearchStats
}

// Occurrences sums the counts of all matches.
func (r Result) Occurrences() int {
	n := 0
	for _, m := range r.Matches {
		n += m.Base().Count
	}
	return n
}
