package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/richardlehane/mscfb"
	xunicode "golang.org/x/text/encoding/unicode"

	"pdfphrase/search"
)

// maxDocStreamBytes caps how much of each OLE stream is read.
const maxDocStreamBytes = 8 << 20

// textStreams are the compound-file streams that carry Word body text.
var textStreams = map[string]bool{
	"WordDocument": true,
	"1Table":       true,
	"0Table":       true,
}

// DOCSource salvages text from legacy Word (.doc) compound files. It does
// not parse the piece table; it decodes the text-bearing streams as UTF-16
// when they look like it and falls back to printable ASCII runs.
type DOCSource struct{}

// Extract implements search.ChunkSource.
func (DOCSource) Extract(_ context.Context, path string) ([]search.PageChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cf, err := mscfb.New(f)
	if err != nil {
		return nil, fmt.Errorf("%s: not an OLE compound file: %w", path, err)
	}

	var b strings.Builder
	for ent, err := cf.Next(); err == nil; ent, err = cf.Next() {
		if !textStreams[ent.Name] {
			continue
		}
		data, rerr := io.ReadAll(io.LimitReader(ent, maxDocStreamBytes))
		if rerr != nil || len(data) == 0 {
			continue
		}
		b.WriteString(salvageText(data))
		b.WriteByte('\n')
	}
	return singleChunk(b.String()), nil
}

// salvageText decodes data as UTF-16LE when most odd bytes are zero and
// keeps only printable ASCII otherwise.
func salvageText(data []byte) string {
	if looksUTF16(data) {
		decoded, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewDecoder().Bytes(data)
		if err == nil {
			return printable(string(decoded))
		}
	}
	buf := make([]byte, len(data))
	for i, c := range data {
		if c == '\t' || c == '\n' || c == '\r' || (c >= 0x20 && c <= 0x7e) {
			buf[i] = c
		} else {
			buf[i] = ' '
		}
	}
	return string(buf)
}

func looksUTF16(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	zeros, pairs := 0, len(data)/2
	for i := 1; i < len(data); i += 2 {
		if data[i] == 0 {
			zeros++
		}
	}
	return zeros*10 >= pairs*6
}

// printable blanks out control and unassigned runes.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
}
