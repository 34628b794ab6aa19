// Package scheduler runs background jobs that keep caches warm.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kolboard/internal/observability"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const (
	QuoteRefreshJob = "quote_refresh"

	// DefaultQuoteRefreshSpec runs every five minutes.
	DefaultQuoteRefreshSpec = "*/5 * * * *"

	defaultRefreshConcurrency = 4
	defaultRunTimeout         = 2 * time.Minute
)

// QuoteSource is the part of the stock service the quote warmer needs.
type QuoteSource interface {
	TrackedSymbols(ctx context.Context) ([]string, error)
	RefreshQuote(ctx context.Context, symbol string) error
}

// RunStats summarizes one warmer pass.
type RunStats struct {
	Symbols   int
	Refreshed int
	Failed    int
}

// QuoteWarmer refreshes cached quotes for every tracked symbol.
type QuoteWarmer struct {
	source      QuoteSource
	concurrency int
	timeout     time.Duration
}

func NewQuoteWarmer(source QuoteSource, concurrency int) *QuoteWarmer {
	if concurrency <= 0 {
		concurrency = defaultRefreshConcurrency
	}
	return &QuoteWarmer{source: source, concurrency: concurrency, timeout: defaultRunTimeout}
}

// Run performs one pass. Individual symbol failures are counted, not returned.
func (w *QuoteWarmer) Run(ctx context.Context) (RunStats, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	symbols, err := w.source.TrackedSymbols(ctx)
	if err != nil {
		return RunStats{}, err
	}

	var (
		mu    sync.Mutex
		stats = RunStats{Symbols: len(symbols)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, symbol := range symbols {
		g.Go(func() error {
			err := w.source.RefreshQuote(gctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				observability.Logger.WarnContext(ctx, "quote refresh failed",
					slog.String("symbol", symbol),
					slog.String("error", err.Error()),
				)
				return nil
			}
			stats.Refreshed++
			return nil
		})
	}
	_ = g.Wait()
	return stats, nil
}

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))}
}

// AddQuoteWarmer registers the warmer on spec (standard five-field cron syntax).
func (s *Scheduler) AddQuoteWarmer(spec string, warmer *QuoteWarmer) error {
	if spec == "" {
		spec = DefaultQuoteRefreshSpec
	}
	_, err := s.cron.AddFunc(spec, func() {
		runJob(context.Background(), QuoteRefreshJob, warmer.Run)
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func runJob(ctx context.Context, job string, run func(context.Context) (RunStats, error)) {
	start := time.Now()
	observability.LogJobStart(ctx, job, nil)

	stats, err := run(ctx)
	if err != nil {
		observability.ScheduledJobRuns.WithLabelValues(job, "error").Inc()
		observability.LogJobError(ctx, job, err)
		return
	}

	result := "success"
	if stats.Failed > 0 {
		result = "partial"
	}
	observability.ScheduledJobRuns.WithLabelValues(job, result).Inc()
	observability.LogJobEnd(ctx, job, map[string]any{
		"symbols":     stats.Symbols,
		"refreshed":   stats.Refreshed,
		"failed":      stats.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}
