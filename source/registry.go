// Package source turns documents on disk into the page chunks the search
// dispatchers work on.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pdfphrase/search"
)

// ErrUnsupported is returned for a document type no extractor handles.
var ErrUnsupported = errors.New("unsupported document type")

// Registry holds sources for different file types and picks one by
// extension. It implements search.ChunkSource.
type Registry struct {
	extractors map[string]search.ChunkSource
	logger     *slog.Logger
}

// Options configures the built-in sources.
type Options struct {
	// ChunkSize is the number of PDF pages per chunk; 0 derives it from the
	// page count and CPU count.
	ChunkSize int
	// Workers bounds parallel page-range extraction; 0 means
	// search.OptimalWorkers.
	Workers int
	Logger  *slog.Logger
}

// NewRegistry creates a new registry with built-in sources
func NewRegistry(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reg := &Registry{
		extractors: make(map[string]search.ChunkSource),
		logger:     logger,
	}

	text := &TextSource{}
	reg.extractors["pdf"] = &PDFSource{ChunkSize: opts.ChunkSize, Workers: opts.Workers, Logger: logger}
	reg.extractors["txt"] = text
	reg.extractors["md"] = text
	reg.extractors["eml"] = &EMLSource{}
	reg.extractors["mbox"] = &MBOXSource{Logger: logger}
	reg.extractors["doc"] = &DOCSource{}
	return reg
}

// Register adds or replaces the source for an extension (without dot).
func (r *Registry) Register(ext string, src search.ChunkSource) {
	r.extractors[normalizeExt(ext)] = src
}

// Lookup returns the source for a given file extension (with or without dot)
func (r *Registry) Lookup(ext string) (search.ChunkSource, bool) {
	src, ok := r.extractors[normalizeExt(ext)]
	return src, ok
}

// Extract dispatches on the file extension. Missing files wrap
// search.ErrNotFound.
func (r *Registry) Extract(ctx context.Context, path string) ([]search.PageChunk, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", search.ErrNotFound, path)
		}
		return nil, err
	}

	src, ok := r.Lookup(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}
	chunks, err := src.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("document extracted", slog.String("path", path), slog.Int("chunks", len(chunks)))
	return chunks, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// singleChunk wraps whole-document text as one chunk spanning page 0.
func singleChunk(text string) []search.PageChunk {
	return []search.PageChunk{{StartPage: 0, EndPage: 1, Text: text}}
}
