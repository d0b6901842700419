// Package heatmap counts word and per-document match frequencies and draws
// them as a one-row heat strip.
package heatmap

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"pdfphrase/search"
)

// Cell is one labelled value of the strip.
type Cell struct {
	Label string
	Value int
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

func isNumeric(word string) bool {
	return strings.IndexFunc(word, func(r rune) bool { return !unicode.IsNumber(r) }) < 0
}

// WordFrequencies returns the topN most frequent lower-cased words across
// all chunks, ignoring words shorter than minLength runes and purely
// numeric tokens. Ties keep first-appearance order.
func WordFrequencies(chunks []search.PageChunk, topN, minLength int) []Cell {
	counts := make(map[string]int)
	var order []string
	for _, c := range chunks {
		for _, word := range strings.FieldsFunc(strings.ToLower(c.Text), func(r rune) bool { return !isWordRune(r) }) {
			if utf8.RuneCountInString(word) < minLength || isNumeric(word) {
				continue
			}
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	cells := make([]Cell, len(order))
	for i, w := range order {
		cells[i] = Cell{Label: w, Value: counts[w]}
	}
	return top(cells, topN)
}

// DocumentFrequencies sums match counts by document name, highest first.
func DocumentFrequencies(matches []search.Match) []Cell {
	index := make(map[string]int)
	var cells []Cell
	for _, m := range matches {
		name, _ := search.Source(m)
		i, ok := index[name]
		if !ok {
			i = len(cells)
			index[name] = i
			cells = append(cells, Cell{Label: name})
		}
		cells[i].Value += m.Base().Count
	}
	return top(cells, 0)
}

// top sorts cells by value, descending and stable, and keeps the first n
// (n <= 0 keeps all).
func top(cells []Cell, n int) []Cell {
	slices.SortStableFunc(cells, func(a, b Cell) int { return b.Value - a.Value })
	if n > 0 && len(cells) > n {
		cells = cells[:n]
	}
	return cells
}
