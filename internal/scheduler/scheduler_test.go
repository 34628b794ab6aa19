package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"kolboard/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotes struct {
	mu        sync.Mutex
	symbols   []string
	listErr   error
	failing   map[string]bool
	refreshed []string
}

func (f *fakeQuotes) TrackedSymbols(context.Context) ([]string, error) {
	return f.symbols, f.listErr
}

func (f *fakeQuotes) RefreshQuote(_ context.Context, symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[symbol] {
		return errors.New("upstream down")
	}
	f.refreshed = append(f.refreshed, symbol)
	return nil
}

func TestQuoteWarmer_RefreshesEverySymbol(t *testing.T) {
	src := &fakeQuotes{
		symbols: []string{"AAPL", "TSLA", "NVDA", "MSFT"},
		failing: map[string]bool{"NVDA": true},
	}
	stats, err := NewQuoteWarmer(src, 2).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunStats{Symbols: 4, Refreshed: 3, Failed: 1}, stats)
	assert.ElementsMatch(t, []string{"AAPL", "TSLA", "MSFT"}, src.refreshed)
}

func TestQuoteWarmer_ListFailure(t *testing.T) {
	src := &fakeQuotes{listErr: errors.New("db down")}
	_, err := NewQuoteWarmer(src, 0).Run(context.Background())
	assert.Error(t, err)
}

func TestRunJob_RecordsResult(t *testing.T) {
	before := testutil.ToFloat64(observability.ScheduledJobRuns.WithLabelValues("test_job", "partial"))
	runJob(context.Background(), "test_job", func(context.Context) (RunStats, error) {
		return RunStats{Symbols: 2, Refreshed: 1, Failed: 1}, nil
	})
	after := testutil.ToFloat64(observability.ScheduledJobRuns.WithLabelValues("test_job", "partial"))
	assert.Equal(t, before+1, after)

	before = testutil.ToFloat64(observability.ScheduledJobRuns.WithLabelValues("test_job", "error"))
	runJob(context.Background(), "test_job", func(context.Context) (RunStats, error) {
		return RunStats{}, errors.New("boom")
	})
	assert.Equal(t, before+1, testutil.ToFloat64(observability.ScheduledJobRuns.WithLabelValues("test_job", "error")))
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := New()
	assert.Error(t, s.AddQuoteWarmer("not a cron spec", NewQuoteWarmer(&fakeQuotes{}, 1)))
	assert.NoError(t, s.AddQuoteWarmer("", NewQuoteWarmer(&fakeQuotes{}, 1)))
}
