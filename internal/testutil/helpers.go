package testutil

import (
	"database/sql"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/repository"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TestInitialCash is the starting cash of portfolios created by test services.
const TestInitialCash = 100000

// TestLogger returns a logger that discards output.
func TestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// DefaultPortfolioSettings returns the settings used by NewTestPortfolioService.
func DefaultPortfolioSettings() service.PortfolioSettings {
	return service.PortfolioSettings{
		DefaultID:    "default",
		InitialCash:  decimal.NewFromInt(TestInitialCash),
		RiskFreeRate: 0.02,
	}
}

func NewTestPortfolioService(t *testing.T, db *sql.DB, oracle service.PriceOracle) *service.PortfolioService {
	t.Helper()

	return NewTestPortfolioServiceWithSettings(t, db, oracle, DefaultPortfolioSettings())
}

func NewTestPortfolioServiceWithSettings(t *testing.T, db *sql.DB, oracle service.PriceOracle, settings service.PortfolioSettings) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		db,
		repository.NewPortfolioRepository(db),
		repository.NewPositionRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewRealizedGainLossRepository(db),
		repository.NewSnapshotRepository(db),
		oracle,
		settings,
		TestLogger(),
	)
}

func NewTestForecastService(t *testing.T, db *sql.DB) *service.ForecastService {
	t.Helper()

	return NewTestForecastServiceWithHistory(t, db, NewMockPriceHistory())
}

// NewTestForecastServiceWithHistory returns a forecast service that evaluates
// against the closes served by history.
func NewTestForecastServiceWithHistory(t *testing.T, db *sql.DB, history service.PriceHistory) *service.ForecastService {
	t.Helper()

	return service.NewForecastService(db, repository.NewForecastRepository(db), history, TestLogger())
}

// NewTestStrategyService returns a strategy service together with the
// portfolio service it trades through.
func NewTestStrategyService(t *testing.T, db *sql.DB, oracle service.PriceOracle) (*service.StrategyService, *service.PortfolioService) {
	t.Helper()

	portfolios := NewTestPortfolioService(t, db, oracle)
	forecasts := NewTestForecastService(t, db)

	return service.NewStrategyService(portfolios, forecasts, oracle, TestLogger()), portfolios
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
func MakeID() string {
	return uuid.New().String()
}

// Dec parses a decimal literal, panicking on malformed input.
//
// Example usage:
//
//	assert.True(t, testutil.Dec("98500").Equal(result.RemainingCash))
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
