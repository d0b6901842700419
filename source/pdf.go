package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"pdfphrase/config"
	"pdfphrase/search"
)

// PDFSource extracts PDF text in contiguous page ranges, one range per
// chunk, in parallel. A range the primary reader cannot extract is retried
// with the pdfcpu content-stream salvage, and left empty if that fails too.
type PDFSource struct {
	ChunkSize int
	Workers   int
	Logger    *slog.Logger

	// salvage is the fallback extractor; nil means salvageRange.
	salvage func(path string, start, end int) (string, error)
}

func (s *PDFSource) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Extract implements search.ChunkSource.
func (s *PDFSource) Extract(ctx context.Context, path string) ([]search.PageChunk, error) {
	pages, err := PageCount(path)
	if err != nil {
		return nil, err
	}

	size := s.ChunkSize
	if size <= 0 {
		size = config.ChunkSize(pages, runtime.NumCPU())
	}
	ranges := config.PageRanges(pages, size)
	chunks := make([]search.PageChunk, len(ranges))

	workers := s.Workers
	if workers <= 0 {
		workers = search.OptimalWorkers()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, r := range ranges {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks[i] = search.PageChunk{StartPage: r[0], EndPage: r[1], Text: s.extractRange(path, r[0], r[1])}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger().Debug("pdf extracted",
		slog.String("path", path),
		slog.Int("pages", pages),
		slog.Int("chunks", len(chunks)))
	return chunks, nil
}

// extractRange never fails; an unreadable range yields empty text.
func (s *PDFSource) extractRange(path string, start, end int) string {
	text, err := ExtractPages(path, start, end)
	if err == nil {
		return text
	}
	logger := s.logger().With(slog.String("path", path), slog.String("pages", fmt.Sprintf("%d-%d", start, end)))
	logger.Warn("primary extraction failed, trying salvage", slog.String("error", err.Error()))

	salvage := s.salvage
	if salvage == nil {
		salvage = salvageRange
	}
	text, err = salvage(path, start, end)
	if err != nil {
		logger.Error("page range left empty",
			slog.String("error", fmt.Errorf("%w: %v", search.ErrExtraction, err).Error()))
		return ""
	}
	return text
}

// PageCount returns the number of pages, falling back to pdfcpu when the
// primary reader cannot parse the file.
func PageCount(path string) (n int, err error) {
	if n, err = primaryPageCount(path); err == nil {
		return n, nil
	}

	f, ferr := os.Open(path)
	if ferr != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", ferr)
	}
	defer f.Close()

	n, cerr := api.PageCount(f, nil)
	if cerr != nil {
		return 0, fmt.Errorf("failed to get page count: %w (primary reader: %v)", cerr, err)
	}
	return n, nil
}

func primaryPageCount(path string) (n int, err error) {
	// The PDF library may panic on malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}

// ExtractPages returns the plain text of pages [start, end) (0-based), each
// page followed by a newline. The file is opened privately so concurrent
// calls never share a reader.
func ExtractPages(path string, start, end int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	end = min(end, r.NumPage())
	var b strings.Builder
	for i := start; i < end; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			b.WriteByte('\n')
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(content)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
