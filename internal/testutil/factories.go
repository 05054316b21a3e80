package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/repository"
	"github.com/shopspring/decimal"
)

// ForecastBuilder provides a fluent interface for creating test forecasts.
type ForecastBuilder struct {
	ID        string
	Ticker    string
	Horizon   string
	ModelName string
	CreatedAt time.Time
	Closes    []float64
	Start     time.Time
}

// NewForecast creates a forecast builder for ticker with a two point flat path.
//
// Example usage:
//
//	f := testutil.NewForecast("AAPL").WithCloses(150, 152, 155).Build(t, db)
func NewForecast(ticker string) *ForecastBuilder {
	return &ForecastBuilder{
		ID:        MakeID(),
		Ticker:    ticker,
		Horizon:   "5d",
		ModelName: "test",
		CreatedAt: time.Now().UTC(),
		Closes:    []float64{100, 100},
		Start:     time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	}
}

// WithCloses sets the predicted closes, one per day from the start date.
func (b *ForecastBuilder) WithCloses(closes ...float64) *ForecastBuilder {
	b.Closes = closes
	return b
}

func (b *ForecastBuilder) WithCreatedAt(at time.Time) *ForecastBuilder {
	b.CreatedAt = at
	return b
}

// WithStart sets the day of the first point.
func (b *ForecastBuilder) WithStart(start time.Time) *ForecastBuilder {
	b.Start = start
	return b
}

func (b *ForecastBuilder) WithHorizon(horizon string) *ForecastBuilder {
	b.Horizon = horizon
	return b
}

// Model returns the forecast without storing it.
func (b *ForecastBuilder) Model() model.Forecast {
	points := make([]model.ForecastPoint, len(b.Closes))
	for i, c := range b.Closes {
		points[i] = model.ForecastPoint{
			Timestamp:      b.Start.AddDate(0, 0, i),
			PredictedClose: decimal.NewFromFloat(c),
		}
	}

	return model.Forecast{
		ID:        b.ID,
		Ticker:    b.Ticker,
		Horizon:   b.Horizon,
		ModelName: b.ModelName,
		CreatedAt: b.CreatedAt,
		Points:    points,
	}
}

// Build stores the forecast and returns it.
func (b *ForecastBuilder) Build(t *testing.T, db *sql.DB) model.Forecast {
	t.Helper()

	f := b.Model()
	if err := repository.NewForecastRepository(db).InsertForecast(context.Background(), &f); err != nil {
		t.Fatalf("Failed to create test forecast: %v", err)
	}
	return f
}

// PortfolioBuilder provides a fluent interface for creating test portfolios.
type PortfolioBuilder struct {
	ID          string
	InitialCash decimal.Decimal
	CurrentCash decimal.Decimal
}

// NewPortfolio creates a portfolio builder with the test initial cash.
func NewPortfolio(id string) *PortfolioBuilder {
	cash := decimal.NewFromInt(TestInitialCash)
	return &PortfolioBuilder{
		ID:          id,
		InitialCash: cash,
		CurrentCash: cash,
	}
}

// WithCash sets both the initial and the current cash.
func (b *PortfolioBuilder) WithCash(cash float64) *PortfolioBuilder {
	b.InitialCash = decimal.NewFromFloat(cash)
	b.CurrentCash = b.InitialCash
	return b
}

// Build stores the portfolio and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	now := time.Now().UTC()
	p := model.Portfolio{
		ID:          b.ID,
		InitialCash: b.InitialCash,
		CurrentCash: b.CurrentCash,
		TotalValue:  b.CurrentCash,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := repository.NewPortfolioRepository(db).InsertPortfolio(context.Background(), &p); err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}
	return p
}

// CreateSnapshots appends one snapshot per value to the portfolio's history.
func CreateSnapshots(t *testing.T, db *sql.DB, portfolioID string, values ...float64) {
	t.Helper()

	repo := repository.NewSnapshotRepository(db)
	start := time.Date(2025, 1, 1, 22, 0, 0, 0, time.UTC)
	for i, v := range values {
		s := model.PerformanceSnapshot{
			ID:          MakeID(),
			PortfolioID: portfolioID,
			Date:        start.AddDate(0, 0, i),
			TotalValue:  v,
			Cash:        v,
		}
		if err := repo.AppendSnapshot(context.Background(), &s, model.MaxPerformanceHistory); err != nil {
			t.Fatalf("Failed to create test snapshot: %v", err)
		}
	}
}
