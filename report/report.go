// Package report renders search results as PDF documents.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"pdfphrase/search"
)

// Input is everything a report shows.
type Input struct {
	Phrase          string
	TotalWords      int
	Matches         []search.Match
	MaxIntermediate int
}

func (in Input) occurrences() int {
	return search.Result{Matches: in.Matches}.Occurrences()
}

const (
	fontFamily = "Helvetica"
	lineHeight = 5.5
)

var (
	highlightFill = [3]int{255, 255, 0}
	phraseFill    = [3]int{211, 211, 211}
	phraseText    = [3]int{200, 0, 0}
)

// writer wraps fpdf with the few layout primitives the reports need.
type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newWriter(title string) *writer {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (w *writer) heading(text string, size float64) {
	w.pdf.SetFont(fontFamily, "B", size)
	w.pdf.MultiCell(0, size*0.5, w.tr(text), "", "L", false)
	w.pdf.Ln(3)
}

func (w *writer) field(label, value string) {
	w.pdf.SetFont(fontFamily, "B", 11)
	w.pdf.Write(lineHeight, w.tr(label+": "))
	w.pdf.SetFont(fontFamily, "", 11)
	w.pdf.Write(lineHeight, w.tr(value))
	w.pdf.Ln(lineHeight)
}

func (w *writer) note(text string) {
	w.pdf.SetFont(fontFamily, "I", 10)
	w.pdf.MultiCell(0, lineHeight, w.tr(text), "", "L", false)
}

func (w *writer) body(text string) {
	w.pdf.SetFont(fontFamily, "", 11)
	w.pdf.MultiCell(0, lineHeight, w.tr(text), "", "L", false)
}

// boxed prints text on a filled background in the given colour.
func (w *writer) boxed(text string, fill, color [3]int) {
	w.pdf.SetFont(fontFamily, "", 11)
	w.pdf.SetFillColor(fill[0], fill[1], fill[2])
	w.pdf.SetTextColor(color[0], color[1], color[2])
	w.pdf.MultiCell(0, lineHeight, w.tr(text), "", "L", true)
	w.pdf.SetTextColor(0, 0, 0)
}

// runs lays out segments word by word so highlighted words get a filled
// background and still wrap at the right margin.
func (w *writer) runs(segs []Segment) {
	pdf := w.pdf
	pdf.SetFont(fontFamily, "", 11)
	pdf.SetFillColor(highlightFill[0], highlightFill[1], highlightFill[2])

	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	limit := pageWidth - right
	space := pdf.GetStringWidth(" ")

	pendingSpace := false
	for _, seg := range segs {
		for i, word := range strings.Fields(seg.Text) {
			spaced := i > 0 || pendingSpace || strings.HasPrefix(seg.Text, " ")
			text := w.tr(word)
			width := pdf.GetStringWidth(text)
			if pdf.GetX()+width > limit && pdf.GetX() > left {
				pdf.Ln(lineHeight)
			} else if spaced && pdf.GetX() > left {
				pdf.CellFormat(space, lineHeight, "", "", 0, "L", false, 0, "")
			}
			pdf.CellFormat(width, lineHeight, text, "", 0, "L", seg.Highlight, 0, "")
		}
		pendingSpace = strings.HasSuffix(seg.Text, " ")
	}
	pdf.Ln(lineHeight)
}

func (w *writer) gap(h float64) {
	w.pdf.Ln(h)
}

func (w *writer) output(out io.Writer) error {
	return w.pdf.Output(out)
}

// matchBlock renders the per-match section shared by all report kinds.
func (w *writer) matchBlock(n int, m search.Match, phrase string, flexible bool) {
	rec := m.Base()
	w.pdf.SetFont(fontFamily, "B", 11)
	w.pdf.CellFormat(0, lineHeight, fmt.Sprintf("Match #%d", n), "", 1, "L", false, 0, "")
	pages := rec.PageRange
	if pages == "" {
		pages = "N/A"
	}
	w.field("Page(s)", pages)
	w.gap(2)

	if flexible {
		w.pdf.SetFont(fontFamily, "B", 11)
		w.pdf.CellFormat(0, lineHeight, "Found phrase:", "", 1, "L", false, 0, "")
		w.boxed(search.Original(m), phraseFill, phraseText)
		w.gap(2)
	}

	if rec.Paragraph != "" {
		w.pdf.SetFont(fontFamily, "B", 11)
		w.pdf.CellFormat(0, lineHeight, "Context:", "", 1, "L", false, 0, "")
		w.runs(Segments(rec.Paragraph, search.Spans(m, phrase)))
	}
}

func gapNote(maxIntermediate int) string {
	if maxIntermediate <= 0 {
		maxIntermediate = search.DefaultMaxIntermediate
	}
	return fmt.Sprintf("(Matches allow up to %d intervening words between phrase terms)", maxIntermediate)
}

func buildExact(in Input) *writer {
	w := newWriter("Exact search report")
	w.heading("EXACT SEARCH REPORT", 18)
	w.field("Search phrase", in.Phrase)
	w.field("Total words analysed", FormatCount(in.TotalWords))
	w.field("Total matches", FormatCount(in.occurrences()))
	w.gap(8)

	if len(in.Matches) == 0 {
		w.body("No exact matches were found.")
		return w
	}
	w.heading("MATCH DETAILS", 14)
	for i, m := range in.Matches {
		w.matchBlock(i+1, m, in.Phrase, false)
		w.gap(4)
	}
	return w
}

func buildFlexible(in Input) *writer {
	w := newWriter("Flexible search report")
	w.heading("FLEXIBLE SEARCH REPORT", 18)
	w.field("Search phrase", in.Phrase)
	w.field("Total words analysed", FormatCount(in.TotalWords))
	w.field("Total matches", FormatCount(in.occurrences()))
	w.note(gapNote(in.MaxIntermediate))
	w.gap(8)

	if len(in.Matches) == 0 {
		w.body("No matches were found.")
		return w
	}
	w.heading("MATCH DETAILS", 14)
	for i, m := range in.Matches {
		w.matchBlock(i+1, m, in.Phrase, true)
		w.gap(6)
	}
	return w
}

func buildMulti(in Input) *writer {
	w := newWriter("Multi-document flexible search report")
	w.heading("FLEXIBLE SEARCH REPORT ACROSS MULTIPLE PDFs", 18)
	w.field("Search phrase", in.Phrase)
	w.field("Total files analysed", FormatCount(DistinctFiles(in.Matches)))
	w.field("Total words analysed", FormatCount(in.TotalWords))
	w.field("Total matches", FormatCount(in.occurrences()))
	w.note(gapNote(in.MaxIntermediate))
	w.gap(8)

	if len(in.Matches) == 0 {
		w.body("No flexible matches were found in any of the files.")
		return w
	}
	for _, g := range GroupByFile(in.Matches) {
		w.heading("File: "+g.Name, 14)
		for i, m := range g.Matches {
			w.matchBlock(i+1, m, in.Phrase, true)
			w.gap(4)
		}
		w.gap(6)
	}
	return w
}

// Exact writes the exact search report to path.
func Exact(path string, in Input) error { return Save(path, KindExact, in) }

// Flexible writes the single-document flexible search report to path.
func Flexible(path string, in Input) error { return Save(path, KindFlexible, in) }

// Multi writes the multi-document report to path, grouping matches by file.
func Multi(path string, in Input) error { return Save(path, KindMulti, in) }

// Kind selects a report layout for Write.
type Kind int

const (
	KindExact Kind = iota
	KindFlexible
	KindMulti
)

// Write renders a report of the given kind to out.
func Write(out io.Writer, kind Kind, in Input) error {
	var w *writer
	switch kind {
	case KindExact:
		w = buildExact(in)
	case KindFlexible:
		w = buildFlexible(in)
	case KindMulti:
		w = buildMulti(in)
	default:
		return fmt.Errorf("unknown report kind %d", kind)
	}
	return w.output(out)
}

// Save renders a report of the given kind to a new file at path.
func Save(path string, kind Kind, in Input) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	if err := Write(f, kind, in); err != nil {
		f.Close()
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return f.Close()
}
