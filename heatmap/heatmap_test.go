package heatmap

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfphrase/search"
)

func TestWordFrequencies(t *testing.T) {
	chunks := []search.PageChunk{
		{StartPage: 0, EndPage: 1, Text: "Apple banana apple, cherry. 2024 2024 2024"},
		{StartPage: 1, EndPage: 2, Text: "BANANA apple kiwi über über"},
	}

	got := WordFrequencies(chunks, 3, 4)
	assert.Equal(t, []Cell{
		{Label: "apple", Value: 3},
		{Label: "banana", Value: 2},
		{Label: "über", Value: 2},
	}, got)

	all := WordFrequencies(chunks, 10, 4)
	assert.Equal(t, "cherry", all[3].Label)
	assert.Equal(t, "kiwi", all[4].Label)
	assert.Len(t, all, 5, "numbers are never counted")

	assert.Empty(t, WordFrequencies(nil, 5, 4))
}

func TestDocumentFrequencies(t *testing.T) {
	match := func(name string, count int) search.Match {
		return search.SourcedMatch{
			Match:   search.FlexibleMatch{Record: search.Record{Count: count}},
			PDFName: name,
		}
	}
	got := DocumentFrequencies([]search.Match{match("a.pdf", 1), match("b.pdf", 1), match("b.pdf", 1), match("c.pdf", 2)})
	assert.Equal(t, []Cell{
		{Label: "b.pdf", Value: 2},
		{Label: "c.pdf", Value: 2},
		{Label: "a.pdf", Value: 1},
	}, got)
}

func TestRamp(t *testing.T) {
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xcc, 0xff}, Ramp(0))
	assert.Equal(t, color.RGBA{0x80, 0x00, 0x26, 0xff}, Ramp(1))
	assert.Equal(t, Ramp(0), Ramp(-3))
	assert.Equal(t, ylOrRd[4], Ramp(0.5))
}

func TestRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "word_heatmap.png")
	cells := []Cell{{"alpha", 10}, {"a-much-longer-label-than-fits", 4}, {"gamma", 1}}
	require.NoError(t, Render(path, cells, Options{Title: "Top 3 words", Unit: "frequency"}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	// The hottest cell is drawn in the darkest colour.
	top := margin + titleH
	r, g, b, _ := img.At(margin+2, top+2).RGBA()
	dark := ylOrRd[len(ylOrRd)-1]
	assert.Equal(t, uint32(dark.R), r>>8)
	assert.Equal(t, uint32(dark.G), g>>8)
	assert.Equal(t, uint32(dark.B), b>>8)

	assert.ErrorIs(t, Render(path, nil, Options{}), ErrNoData)
}
