package source

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"pdfphrase/search"
)

// TextSource reads plain text and markdown files as a single chunk. Files
// that are not valid UTF-8 are decoded as Windows-1252.
type TextSource struct{}

// Extract implements search.ChunkSource.
func (TextSource) Extract(_ context.Context, path string) ([]search.PageChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
			data = decoded
		}
	}
	return singleChunk(string(data)), nil
}
