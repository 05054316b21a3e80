package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/rs/zerolog"
)

// SnapshotRecorder is the part of the portfolio service the snapshot job needs.
type SnapshotRecorder interface {
	GetPortfolioIDs(ctx context.Context) ([]string, error)
	RecordSnapshot(ctx context.Context, portfolioID string) (model.PortfolioSummary, error)
}

// SnapshotJob records a performance snapshot for every portfolio.
type SnapshotJob struct {
	portfolios SnapshotRecorder
	log        zerolog.Logger
}

// NewSnapshotJob creates a SnapshotJob.
func NewSnapshotJob(portfolios SnapshotRecorder, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		portfolios: portfolios,
		log:        log.With().Str("job", "snapshot").Logger(),
	}
}

func (j *SnapshotJob) Name() string { return "snapshot" }

// Run snapshots each portfolio in turn. A failing portfolio does not stop
// the others; all failures are returned together.
func (j *SnapshotJob) Run(ctx context.Context) error {
	ids, err := j.portfolios.GetPortfolioIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list portfolios: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		summary, err := j.portfolios.RecordSnapshot(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("portfolio %s: %w", id, err))
			continue
		}

		j.log.Info().
			Str("portfolio_id", id).
			Str("total_value", summary.TotalValue.StringFixed(2)).
			Msg("snapshot recorded")
	}

	return errors.Join(errs...)
}

// StrategyExecutor is the part of the strategy service the auto-strategy job needs.
type StrategyExecutor interface {
	ExecuteStrategy(ctx context.Context, req model.StrategyRequest) (model.StrategyResult, error)
}

// AutoStrategyJob runs one strategy against the latest forecast of each configured ticker.
type AutoStrategyJob struct {
	strategies  StrategyExecutor
	portfolioID string
	strategy    string
	tickers     []string
	log         zerolog.Logger
}

// NewAutoStrategyJob creates an AutoStrategyJob.
func NewAutoStrategyJob(strategies StrategyExecutor, portfolioID, strategy string, tickers []string, log zerolog.Logger) *AutoStrategyJob {
	return &AutoStrategyJob{
		strategies:  strategies,
		portfolioID: portfolioID,
		strategy:    strategy,
		tickers:     tickers,
		log:         log.With().Str("job", "auto_strategy").Logger(),
	}
}

func (j *AutoStrategyJob) Name() string { return "auto_strategy" }

// Run executes the strategy for every ticker. Business rule rejections such
// as a missing forecast or an unavailable price are logged and skipped.
func (j *AutoStrategyJob) Run(ctx context.Context) error {
	var errs []error
	for _, ticker := range j.tickers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		result, err := j.strategies.ExecuteStrategy(ctx, model.StrategyRequest{
			PortfolioID: j.portfolioID,
			Ticker:      ticker,
			Strategy:    j.strategy,
		})
		if apperrors.IsBusinessRule(err) || errors.Is(err, apperrors.ErrForecastNotFound) {
			j.log.Warn().Err(err).Str("ticker", ticker).Msg("strategy skipped")
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("ticker %s: %w", ticker, err))
			continue
		}

		j.log.Info().
			Str("ticker", ticker).
			Str("action", result.Action).
			Msg(result.Message)
	}

	return errors.Join(errs...)
}
