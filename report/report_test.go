package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfphrase/search"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []search.Span
		want  []Segment
	}{
		{
			name:  "no spans",
			text:  "plain text",
			spans: nil,
			want:  []Segment{{Text: "plain text"}},
		},
		{
			name:  "middle",
			text:  "the cat sat",
			spans: []search.Span{{Start: 4, End: 7}},
			want:  []Segment{{Text: "the "}, {Text: "cat", Highlight: true}, {Text: " sat"}},
		},
		{
			name:  "unsorted and overlapping",
			text:  "abcdefghij",
			spans: []search.Span{{Start: 6, End: 8}, {Start: 0, End: 3}, {Start: 2, End: 5}},
			want: []Segment{
				{Text: "abc", Highlight: true},
				{Text: "de", Highlight: true},
				{Text: "f"},
				{Text: "gh", Highlight: true},
				{Text: "ij"},
			},
		},
		{
			name:  "clamped",
			text:  "short",
			spans: []search.Span{{Start: -2, End: 2}, {Start: 4, End: 99}},
			want:  []Segment{{Text: "sh", Highlight: true}, {Text: "or"}, {Text: "t", Highlight: true}},
		},
		{
			name:  "empty span dropped",
			text:  "abc",
			spans: []search.Span{{Start: 1, End: 1}},
			want:  []Segment{{Text: "abc"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segments(tt.text, tt.spans)
			assert.Equal(t, tt.want, got)

			var joined strings.Builder
			for _, s := range got {
				joined.WriteString(s.Text)
			}
			assert.Equal(t, tt.text, joined.String())
		})
	}
}

func sourced(name, original string) search.Match {
	return search.SourcedMatch{
		Match: search.FlexibleMatch{
			Record:   search.Record{Paragraph: "a " + original + " z", Count: 1, Positions: []int{2}, PageRange: "0-10"},
			Original: original,
		},
		PDFName: name,
		PDFPath: "/docs/" + name,
	}
}

func TestGroupByFile(t *testing.T) {
	matches := []search.Match{
		sourced("b.pdf", "one x two"),
		sourced("a.pdf", "one y two"),
		sourced("b.pdf", "one z two"),
	}
	groups := GroupByFile(matches)
	require.Len(t, groups, 2)
	assert.Equal(t, "b.pdf", groups[0].Name)
	assert.Len(t, groups[0].Matches, 2)
	assert.Equal(t, "a.pdf", groups[1].Name)
	assert.Equal(t, 2, DistinctFiles(matches))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}

func TestWrite(t *testing.T) {
	exact := search.FindExact("The cat sat. Another cat ran with the cat.", "cat")
	flexible, err := search.FindFlexible("alpha x beta and more. alpha y z beta", "alpha beta", 2)
	require.NoError(t, err)

	tests := []struct {
		name string
		kind Kind
		in   Input
	}{
		{"exact", KindExact, Input{Phrase: "cat", TotalWords: 9, Matches: exact}},
		{"exact empty", KindExact, Input{Phrase: "dog", TotalWords: 9}},
		{"flexible", KindFlexible, Input{Phrase: "alpha beta", TotalWords: 1500, Matches: flexible, MaxIntermediate: 2}},
		{"multi", KindMulti, Input{Phrase: "one two", Matches: []search.Match{sourced("a.pdf", "one x two"), sourced("b.pdf", "one ñ two")}}},
		{"multi empty", KindMulti, Input{Phrase: "one two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.kind, tt.in))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
			assert.Contains(t, buf.String(), "%%EOF")
		})
	}

	assert.Error(t, Write(&bytes.Buffer{}, Kind(42), Input{}))
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exact_search_report.pdf")
	require.NoError(t, Exact(path, Input{Phrase: "cat", Matches: search.FindExact("a cat.", "cat")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	assert.Error(t, Flexible(filepath.Join(dir, "missing", "x.pdf"), Input{}))
}
