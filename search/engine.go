package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// MaxWorkersCeiling caps the worker pool regardless of detected cores
const MaxWorkersCeiling = 32

// OptimalWorkers returns the default worker pool size: twice the available
// parallelism, never more than MaxWorkersCeiling.
func OptimalWorkers() int {
	return workersFor(runtime.NumCPU())
}

func workersFor(cpus int) int {
	if cpus < 1 {
		cpus = 1
	}
	return min(cpus*2, MaxWorkersCeiling)
}

// Options controls one dispatcher run.
type Options struct {
	// MaxWorkers bounds concurrently running tasks; <= 0 means
	// OptimalWorkers, computed when the dispatcher is called.
	MaxWorkers int
	Policy     Policy
	// TaskTimeout bounds each task; 0 disables the limit.
	TaskTimeout time.Duration
	Logger      *slog.Logger

	// Optional progress callback (nil if unused). It may be called from
	// several goroutines at once.
	OnProgress ProgressFunc
}

// workers returns the pool size for n tasks.
func (o Options) workers(n int) int {
	w := o.MaxWorkers
	if w <= 0 {
		w = OptimalWorkers()
	}
	return max(min(w, n), 1)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// SearchStats tracks how a run went
type SearchStats struct {
	Tasks   int
	Failed  int
	Elapsed time.Duration
}

// ConcurrencyManager handles bounded concurrency for a batch of tasks
type ConcurrencyManager struct {
	slots   int
	policy  Policy
	timeout time.Duration
	logger  *slog.Logger
	stage   string
	label   func(i int) string
	report  ProgressFunc
}

func newConcurrencyManager(stage string, slots int, opts Options, label func(int) string) *ConcurrencyManager {
	return &ConcurrencyManager{
		slots:   slots,
		policy:  opts.Policy,
		timeout: opts.TaskTimeout,
		logger:  opts.logger(),
		stage:   stage,
		label:   label,
		report:  opts.OnProgress,
	}
}

// runTasks executes fn for every index in [0, n) on at most cm.slots
// goroutines. Each result lands in its own slot of the returned slice, so the
// slice order is the input order regardless of completion order. Under
// SkipOnError failed slots hold the zero value and their cause is kept in
// failures; under AbortOnError the first failure cancels the rest and is
// returned.
func runTasks[T any](ctx context.Context, cm *ConcurrencyManager, n int, fn func(context.Context, int) (T, error)) (results []T, failures []error, err error) {
	results = make([]T, n)
	failures = make([]error, n)
	if n == 0 {
		return results, failures, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if cm.slots > 0 {
		g.SetLimit(cm.slots)
	}

	var done atomic.Int64
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			val, err := cm.ExecuteWithTimeout(gctx, func(ctx context.Context) (any, error) {
				return fn(ctx, i)
			})
			if cm.report != nil {
				cm.report(cm.stage, int(done.Add(1)), n, cm.label(i))
			}
			if err == nil {
				results[i] = val.(T)
				return nil
			}

			terr := &TaskError{Index: i, Label: cm.label(i), Err: err}
			if cm.policy == SkipOnError && ctx.Err() == nil {
				cm.logger.Warn("task failed, skipping",
					slog.String("stage", cm.stage),
					slog.String("task", terr.Label),
					slog.String("error", err.Error()))
				failures[i] = terr
				return nil
			}
			return terr
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, failures, nil
}

// ExecuteWithTimeout runs fn, converting a panic into an error. With a
// timeout set, fn runs on its own goroutine and is abandoned when the
// deadline passes; fn must not touch shared state for that reason.
func (cm *ConcurrencyManager) ExecuteWithTimeout(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	if cm.timeout <= 0 {
		return safeCall(ctx, fn)
	}

	tctx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	type outcome struct {
		val any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		val, err := safeCall(tctx, fn)
		done <- outcome{val, err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-tctx.Done():
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("operation timed out after %s", cm.timeout)
		}
		return nil, tctx.Err()
	}
}

func safeCall(ctx context.Context, fn func(context.Context) (any, error)) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}

// chunkResult is what one chunk contributes to the aggregate.
type chunkResult struct {
	words   int
	matches []Match
}

// Search runs m over every chunk in parallel and aggregates the per-chunk
// word counts and matches. Matches are ordered by chunk, then by position
// within the chunk, whatever order the workers finish in.
func Search(ctx context.Context, chunks []PageChunk, m Matcher, opts Options) (Result, error) {
	start := time.Now()
	logger := opts.logger().With(slog.String("matcher", m.Name()))

	cm := newConcurrencyManager("search", opts.workers(len(chunks)), opts, func(i int) string {
		return "pages " + chunks[i].PageRange()
	})
	parts, failures, err := runTasks(ctx, cm, len(chunks), func(_ context.Context, i int) (chunkResult, error) {
		return searchChunk(chunks[i], m), nil
	})
	if err != nil {
		return Result{}, err
	}

	res := aggregate(parts)
	res.Stats = SearchStats{Tasks: len(chunks), Failed: countFailures(failures), Elapsed: time.Since(start)}
	logger.Debug("search complete",
		slog.Int("chunks", len(chunks)),
		slog.Int("failed", res.Stats.Failed),
		slog.Int("words", res.TotalWords),
		slog.Int("matches", len(res.Matches)),
		slog.Duration("elapsed", res.Stats.Elapsed))
	return res, nil
}

func searchChunk(c PageChunk, m Matcher) chunkResult {
	text := Normalize(c.Text)
	found := m.Match(text)
	for i := range found {
		found[i] = withPages(found[i], c)
	}
	return chunkResult{words: countWords(text), matches: found}
}

func aggregate(parts []chunkResult) Result {
	var res Result
	for _, p := range parts {
		res.TotalWords += p.words
		res.Matches = append(res.Matches, p.matches...)
	}
	return res
}

func countFailures(failures []error) int {
	n := 0
	for _, err := range failures {
		if err != nil {
			n++
		}
	}
	return n
}
