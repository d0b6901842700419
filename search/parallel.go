package search

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DocumentOutcome records what one input document contributed to a
// multi-document search.
type DocumentOutcome struct {
	Path    string
	Name    string
	Words   int
	Matches int
	Skipped bool
	Err     error
}

// ManyResult is the aggregate of a multi-document search. Documents is in
// input order.
type ManyResult struct {
	Result
	Documents []DocumentOutcome
}

// Files counts the distinct documents that produced at least one match.
func (r ManyResult) Files() int {
	seen := make(map[string]bool)
	for _, m := range r.Matches {
		_, path := Source(m)
		seen[path] = true
	}
	return len(seen)
}

// ManyOptions extends Options with the chunk-level settings used inside
// each document.
type ManyOptions struct {
	Options
	// ChunkWorkers bounds the per-document chunk search; <= 0 reuses
	// MaxWorkers.
	ChunkWorkers int
	// DocumentTimeout bounds extraction plus search of one document; 0
	// disables the limit. TaskTimeout applies to each chunk only.
	DocumentTimeout time.Duration
}

// SearchMany runs the flexible matcher over every document in paths, one
// task per document, and tags each match with its source. A path that does
// not exist contributes nothing and is logged. Other per-document failures
// follow opts.Policy. Matches are grouped by document in input order.
func SearchMany(ctx context.Context, paths []string, m *Flexible, src ChunkSource, opts ManyOptions) (ManyResult, error) {
	return searchManyWith(ctx, paths, m, src, opts)
}

func searchManyWith(ctx context.Context, paths []string, m Matcher, src ChunkSource, opts ManyOptions) (ManyResult, error) {
	start := time.Now()
	logger := opts.logger()

	chunkOpts := Options{
		MaxWorkers:  opts.ChunkWorkers,
		Policy:      AbortOnError,
		TaskTimeout: opts.TaskTimeout,
		Logger:      logger,
	}
	if chunkOpts.MaxWorkers <= 0 {
		chunkOpts.MaxWorkers = opts.MaxWorkers
	}

	docOpts := opts.Options
	docOpts.TaskTimeout = opts.DocumentTimeout
	cm := newConcurrencyManager("documents", opts.workers(len(paths)), docOpts, func(i int) string {
		return filepath.Base(paths[i])
	})
	docs, failures, err := runTasks(ctx, cm, len(paths), func(ctx context.Context, i int) (documentResult, error) {
		return searchDocument(ctx, paths[i], m, src, chunkOpts, logger)
	})
	if err != nil {
		return ManyResult{}, err
	}

	var res ManyResult
	res.Documents = make([]DocumentOutcome, len(paths))
	for i, d := range docs {
		out := d.outcome
		if failures[i] != nil {
			out = DocumentOutcome{Path: paths[i], Name: filepath.Base(paths[i]), Skipped: true, Err: failures[i]}
		}
		res.Documents[i] = out
		res.TotalWords += d.words
		res.Matches = append(res.Matches, d.matches...)
		if out.Skipped {
			res.Stats.Failed++
		}
	}
	res.Stats.Tasks = len(paths)
	res.Stats.Elapsed = time.Since(start)

	logger.Info("multi-document search complete",
		slog.Int("documents", len(paths)),
		slog.Int("skipped", res.Stats.Failed),
		slog.Int("matches", len(res.Matches)),
		slog.Duration("elapsed", res.Stats.Elapsed))
	return res, nil
}

type documentResult struct {
	chunkResult
	outcome DocumentOutcome
}

// searchDocument extracts and searches one document.
func searchDocument(ctx context.Context, path string, m Matcher, src ChunkSource, opts Options, logger *slog.Logger) (documentResult, error) {
	name := filepath.Base(path)
	out := DocumentOutcome{Path: path, Name: name}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("file does not exist, skipping", slog.String("path", path))
			out.Skipped = true
			out.Err = fmt.Errorf("%w: %s", ErrNotFound, path)
			return documentResult{outcome: out}, nil
		}
		return documentResult{}, err
	}

	chunks, err := src.Extract(ctx, path)
	if err != nil {
		return documentResult{}, fmt.Errorf("extract %s: %w", name, err)
	}
	res, err := Search(ctx, chunks, m, opts)
	if err != nil {
		return documentResult{}, fmt.Errorf("search %s: %w", name, err)
	}

	tagged := make([]Match, len(res.Matches))
	for i, match := range res.Matches {
		tagged[i] = SourcedMatch{Match: match, PDFName: name, PDFPath: path}
	}
	out.Words = res.TotalWords
	out.Matches = len(tagged)

	logger.Debug("document searched",
		slog.String("path", path),
		slog.Int("chunks", len(chunks)),
		slog.Int("matches", len(tagged)))
	return documentResult{chunkResult: chunkResult{words: res.TotalWords, matches: tagged}, outcome: out}, nil
}
