package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pdfphrase/config"
	"pdfphrase/heatmap"
	"pdfphrase/report"
	"pdfphrase/search"
	"pdfphrase/source"
)

// session runs searches against one configuration. Its methods write report
// and heatmap files but never print, so the TUI can run them too.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	source   *source.Registry
	progress search.ProgressFunc
}

// job is one unit of CLI work run either inline or under the TUI.
type job func(ctx context.Context, s *session) (outcome, error)

func newSession(cfg *config.Config, logger *slog.Logger) *session {
	return &session{
		cfg:    cfg,
		logger: logger,
		source: source.NewRegistry(source.Options{
			ChunkSize: cfg.ChunkSize,
			Workers:   cfg.EffectiveWorkers(),
			Logger:    logger,
		}),
	}
}

func (s *session) options(policy string) (search.Options, error) {
	p, err := search.ParsePolicy(policy)
	if err != nil {
		return search.Options{}, err
	}
	return search.Options{
		MaxWorkers:  s.cfg.EffectiveWorkers(),
		Policy:      p,
		TaskTimeout: s.cfg.TaskTimeout,
		Logger:      s.logger,
		OnProgress:  s.progress,
	}, nil
}

// load extracts a document into page chunks.
func (s *session) load(ctx context.Context, path string) ([]search.PageChunk, error) {
	chunks, err := s.source.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document loaded", slog.String("path", path), slog.Int("chunks", len(chunks)))
	return chunks, nil
}

func (s *session) flexibleMatcher(phrase string) *search.Flexible {
	return search.NewFlexible(phrase,
		search.WithMaxIntermediate(s.cfg.MaxIntermediate),
		search.WithContextWindow(s.cfg.ContextWindow))
}

func (s *session) exact(ctx context.Context, chunks []search.PageChunk, phrase string) (outcome, error) {
	start := time.Now()
	opts, err := s.options(s.cfg.SearchPolicy)
	if err != nil {
		return outcome{}, err
	}
	res, err := search.Search(ctx, chunks, search.NewExact(phrase), opts)
	if err != nil {
		return outcome{}, err
	}

	path := s.cfg.OutputPath(s.cfg.Reports.Exact)
	if err := report.Exact(path, report.Input{Phrase: phrase, TotalWords: res.TotalWords, Matches: res.Matches}); err != nil {
		return outcome{}, err
	}
	return outcome{
		Title:   "Exact search",
		Phrase:  phrase,
		Result:  res,
		Elapsed: time.Since(start),
		Files:   []artifact{{Label: "Report", Path: path}},
	}, nil
}

func (s *session) flexible(ctx context.Context, chunks []search.PageChunk, phrase string) (outcome, error) {
	start := time.Now()
	opts, err := s.options(s.cfg.SearchPolicy)
	if err != nil {
		return outcome{}, err
	}
	m := s.flexibleMatcher(phrase)
	res, err := search.Search(ctx, chunks, m, opts)
	if err != nil {
		return outcome{}, err
	}

	path := s.cfg.OutputPath(s.cfg.Reports.Flexible)
	in := report.Input{Phrase: phrase, TotalWords: res.TotalWords, Matches: res.Matches, MaxIntermediate: s.cfg.MaxIntermediate}
	if err := report.Flexible(path, in); err != nil {
		return outcome{}, err
	}
	return outcome{
		Title:    "Flexible search",
		Phrase:   phrase,
		Flexible: true,
		Result:   res,
		Elapsed:  time.Since(start),
		Files:    []artifact{{Label: "Report", Path: path}},
		Notice:   notice(m),
	}, nil
}

func (s *session) heatmap(chunks []search.PageChunk) (outcome, error) {
	start := time.Now()
	o := outcome{Title: "Word heatmap"}

	cells := heatmap.WordFrequencies(chunks, s.cfg.Heatmap.TopN, s.cfg.Heatmap.MinLength)
	if len(cells) == 0 {
		o.Notice = "No words met the criteria"
		o.Files = []artifact{{Label: "Heatmap"}}
		o.Elapsed = time.Since(start)
		return o, nil
	}

	path := s.cfg.OutputPath(s.cfg.Heatmap.WordFile)
	err := heatmap.Render(path, cells, heatmap.Options{
		Title: fmt.Sprintf("Top %d most frequent words (min. %d letters)", len(cells), s.cfg.Heatmap.MinLength),
		Unit:  "frequency",
	})
	if err != nil {
		return outcome{}, err
	}
	o.Files = []artifact{{Label: "Heatmap", Path: path}}
	o.Elapsed = time.Since(start)
	return o, nil
}

func (s *session) multi(ctx context.Context, paths []string, phrase string) (outcome, error) {
	start := time.Now()
	opts, err := s.options(s.cfg.MultiPolicy)
	if err != nil {
		return outcome{}, err
	}
	m := s.flexibleMatcher(phrase)
	res, err := search.SearchMany(ctx, paths, m, s.source, search.ManyOptions{Options: opts})
	if err != nil {
		return outcome{}, err
	}

	o := outcome{
		Title:     "Multi-document search",
		Phrase:    phrase,
		Flexible:  true,
		Result:    res.Result,
		Documents: res.Documents,
		Notice:    notice(m),
	}
	if len(res.Matches) == 0 {
		if o.Notice == "" {
			o.Notice = "No flexible matches were found in any of the documents"
		}
		o.Elapsed = time.Since(start)
		return o, nil
	}

	reportPath := s.cfg.OutputPath(s.cfg.Reports.Multi)
	in := report.Input{Phrase: phrase, TotalWords: res.TotalWords, Matches: res.Matches, MaxIntermediate: s.cfg.MaxIntermediate}
	if err := report.Multi(reportPath, in); err != nil {
		return outcome{}, err
	}
	heatPath := s.cfg.OutputPath(s.cfg.Heatmap.PDFFile)
	err = heatmap.Render(heatPath, heatmap.DocumentFrequencies(res.Matches), heatmap.Options{
		Title: "Flexible phrase matches per document",
		Unit:  "matches",
	})
	if err != nil {
		return outcome{}, err
	}
	o.Files = []artifact{{Label: "Report", Path: reportPath}, {Label: "Heatmap", Path: heatPath}}
	o.Elapsed = time.Since(start)
	return o, nil
}

func notice(m *search.Flexible) string {
	if err := m.Err(); err != nil {
		if errors.Is(err, search.ErrUsage) {
			return "The phrase must contain at least two words"
		}
		return err.Error()
	}
	return ""
}
