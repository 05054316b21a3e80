package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/metrics"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestScheduler(t *testing.T) {
	t.Run("runs registered jobs on schedule", func(t *testing.T) {
		s := New(testLogger())
		job := &countingJob{name: "tick"}
		require.NoError(t, s.AddJob("@every 1s", job))

		s.Start()
		defer s.Stop(context.Background())

		require.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	})

	t.Run("an empty schedule disables the job", func(t *testing.T) {
		s := New(testLogger())
		require.NoError(t, s.AddJob("", &countingJob{name: "off"}))
		assert.Empty(t, s.cron.Entries())
	})

	t.Run("rejects malformed schedules", func(t *testing.T) {
		s := New(testLogger())
		assert.Error(t, s.AddJob("every tuesday", &countingJob{name: "bad"}))
	})

	t.Run("run now records the outcome", func(t *testing.T) {
		s := New(testLogger())
		failing := &countingJob{name: "failing_job", err: errors.New("boom")}

		before := testutil.ToFloat64(metrics.JobRuns.WithLabelValues("failing_job", "failure"))
		err := s.RunNow(failing)
		require.EqualError(t, err, "boom")
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.JobRuns.WithLabelValues("failing_job", "failure")))
	})

	t.Run("stop cancels running jobs", func(t *testing.T) {
		s := New(testLogger())
		s.Stop(context.Background())
		assert.Error(t, s.ctx.Err())
	})
}

type fakeRecorder struct {
	mu       sync.Mutex
	ids      []string
	listErr  error
	failFor  string
	recorded []string
}

func (f *fakeRecorder) GetPortfolioIDs(context.Context) ([]string, error) {
	return f.ids, f.listErr
}

func (f *fakeRecorder) RecordSnapshot(_ context.Context, portfolioID string) (model.PortfolioSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if portfolioID == f.failFor {
		return model.PortfolioSummary{}, errors.New("database is locked")
	}
	f.recorded = append(f.recorded, portfolioID)
	return model.PortfolioSummary{PortfolioID: portfolioID, TotalValue: decimal.NewFromInt(100000)}, nil
}

func TestSnapshotJob(t *testing.T) {
	t.Run("snapshots every portfolio", func(t *testing.T) {
		rec := &fakeRecorder{ids: []string{"default", "bot"}}
		job := NewSnapshotJob(rec, testLogger())

		require.NoError(t, job.Run(context.Background()))
		assert.Equal(t, []string{"default", "bot"}, rec.recorded)
		assert.Equal(t, "snapshot", job.Name())
	})

	t.Run("continues past a failing portfolio", func(t *testing.T) {
		rec := &fakeRecorder{ids: []string{"a", "b", "c"}, failFor: "b"}
		job := NewSnapshotJob(rec, testLogger())

		err := job.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "portfolio b")
		assert.Equal(t, []string{"a", "c"}, rec.recorded)
	})

	t.Run("listing failure aborts", func(t *testing.T) {
		rec := &fakeRecorder{listErr: errors.New("no such table")}
		err := NewSnapshotJob(rec, testLogger()).Run(context.Background())
		assert.ErrorContains(t, err, "failed to list portfolios")
	})

	t.Run("stops when cancelled", func(t *testing.T) {
		rec := &fakeRecorder{ids: []string{"a", "b"}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewSnapshotJob(rec, testLogger()).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, rec.recorded)
	})
}

type fakeExecutor struct {
	requests []model.StrategyRequest
	errs     map[string]error
}

func (f *fakeExecutor) ExecuteStrategy(_ context.Context, req model.StrategyRequest) (model.StrategyResult, error) {
	f.requests = append(f.requests, req)
	if err := f.errs[req.Ticker]; err != nil {
		return model.StrategyResult{}, err
	}
	return model.StrategyResult{Strategy: req.Strategy, Action: model.ActionHold, Message: "Hold"}, nil
}

func TestAutoStrategyJob(t *testing.T) {
	t.Run("executes the strategy for each ticker", func(t *testing.T) {
		exec := &fakeExecutor{}
		job := NewAutoStrategyJob(exec, "bot", "conservative", []string{"AAPL", "MSFT"}, testLogger())

		require.NoError(t, job.Run(context.Background()))
		require.Len(t, exec.requests, 2)
		assert.Equal(t, model.StrategyRequest{PortfolioID: "bot", Ticker: "AAPL", Strategy: "conservative"}, exec.requests[0])
		assert.Equal(t, "MSFT", exec.requests[1].Ticker)
	})

	t.Run("rejections are skipped", func(t *testing.T) {
		exec := &fakeExecutor{errs: map[string]error{
			"AAPL": apperrors.Reject(apperrors.ErrForecastNotFound, "No forecast found for AAPL"),
			"MSFT": apperrors.Reject(apperrors.ErrPriceUnavailable, "Could not fetch current price for MSFT"),
		}}
		job := NewAutoStrategyJob(exec, "default", "momentum", []string{"AAPL", "MSFT", "NVDA"}, testLogger())

		require.NoError(t, job.Run(context.Background()))
		assert.Len(t, exec.requests, 3)
	})

	t.Run("infrastructure errors are reported", func(t *testing.T) {
		exec := &fakeExecutor{errs: map[string]error{"AAPL": errors.New("disk I/O error")}}
		job := NewAutoStrategyJob(exec, "default", "momentum", []string{"AAPL", "MSFT"}, testLogger())

		err := job.Run(context.Background())
		assert.ErrorContains(t, err, "ticker AAPL: disk I/O error")
		assert.Len(t, exec.requests, 2)
	})
}
