package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfphrase/search"
)

// writePDF builds a minimal PDF with one line of Helvetica text per page.
// Page text must not contain parentheses or backslashes.
func writePDF(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()

	n := len(pages)
	// Objects: 1 catalog, 2 pages, 3 font, then a page and a content stream per page.
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // pages, filled below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	kids := make([]string, n)
	for i, text := range pages {
		pageObj := 4 + 2*i
		contentObj := pageObj + 1
		kids[i] = fmt.Sprintf("%d 0 R", pageObj)

		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentObj),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestPageCount(t *testing.T) {
	path := writePDF(t, t.TempDir(), "three.pdf", "one", "two", "three")
	n, err := PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestExtractPages(t *testing.T) {
	path := writePDF(t, t.TempDir(), "doc.pdf", "first page text", "second page text", "third page text")

	text, err := ExtractPages(path, 1, 3)
	require.NoError(t, err)
	assert.NotContains(t, text, "first")
	assert.Contains(t, text, "second")
	assert.Contains(t, text, "third")

	text, err = ExtractPages(path, 2, 10)
	require.NoError(t, err)
	assert.Contains(t, text, "third")
}

func TestPDFSource_Chunks(t *testing.T) {
	pages := make([]string, 25)
	for i := range pages {
		pages[i] = fmt.Sprintf("page %d words", i)
	}
	path := writePDF(t, t.TempDir(), "long.pdf", pages...)

	src := &PDFSource{ChunkSize: 10, Workers: 2}
	chunks, err := src.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "0-10", chunks[0].PageRange())
	assert.Equal(t, "10-20", chunks[1].PageRange())
	assert.Equal(t, "20-25", chunks[2].PageRange())
	assert.Contains(t, chunks[0].Text, "page 9 words")
	assert.NotContains(t, chunks[0].Text, "page 10 words")
	assert.Contains(t, chunks[2].Text, "page 24 words")
}

func TestPDFSource_SearchEndToEnd(t *testing.T) {
	path := writePDF(t, t.TempDir(), "story.pdf",
		"The quick brown fox jumps over the lazy dog.",
		"A fox is quick. The lazy dog sleeps.",
	)
	src := &PDFSource{ChunkSize: 1}
	chunks, err := src.Extract(context.Background(), path)
	require.NoError(t, err)

	res, err := search.Search(context.Background(), chunks, search.NewExact("lazy dog"), search.Options{})
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "0-1", res.Matches[0].Base().PageRange)
	assert.Equal(t, "1-2", res.Matches[1].Base().PageRange)
	assert.Positive(t, res.TotalWords)
}

func TestPDFSource_SalvageFallback(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "ok.pdf", "text")

	var calls atomic.Int32
	src := &PDFSource{salvage: func(string, int, int) (string, error) {
		calls.Add(1)
		return "salvaged text", nil
	}}
	// A range the primary reader cannot open falls through to salvage.
	assert.Equal(t, "salvaged text", src.extractRange(filepath.Join(dir, "gone.pdf"), 0, 1))
	assert.EqualValues(t, 1, calls.Load())

	src.salvage = func(string, int, int) (string, error) { return "", errors.New("no luck") }
	assert.Empty(t, src.extractRange(filepath.Join(dir, "gone.pdf"), 0, 1))

	// The primary path never consults salvage.
	assert.Contains(t, src.extractRange(path, 0, 1), "text")
}

func TestParseStringLiterals(t *testing.T) {
	stream := `BT /F1 12 Tf (Hello) Tj (nested \(paren\) text) Tj [(a) -20 (b)] TJ (line\nbreak) Tj ET`
	assert.Equal(t, "Hello nested (paren) text a b line break ", parseStringLiterals(stream))
}

func TestDumpPage(t *testing.T) {
	assert.Equal(t, 12, dumpPage("doc_Content_page_12.txt"))
	assert.Equal(t, 3, dumpPage("doc_Content_page_3.txt"))
	assert.Equal(t, 0, dumpPage("nodigits.txt"))
}
