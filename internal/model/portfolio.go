package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxPerformanceHistory is the number of snapshots retained per portfolio.
const MaxPerformanceHistory = 365

// Portfolio is the cash ledger of one paper-trading account.
// Positions, transactions and snapshots reference it by ID.
type Portfolio struct {
	ID          string
	InitialCash decimal.Decimal
	CurrentCash decimal.Decimal
	// TotalValue is cash plus position market value as of the last recomputation.
	TotalValue  decimal.Decimal
	TotalReturn float64
	Volatility  float64
	SharpeRatio float64
	MaxDrawdown float64
	CreatedAt   time.Time
	LastUpdated time.Time
}

// PerformanceSnapshot is one entry of a portfolio's performance history.
type PerformanceSnapshot struct {
	ID             string    `json:"id"`
	PortfolioID    string    `json:"portfolio_id"`
	Date           time.Time `json:"date"`
	TotalValue     float64   `json:"total_value"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
	TotalReturn    float64   `json:"total_return"` // percent vs initial cash
}

// PerformanceMetrics are the risk metrics derived from a window of snapshots.
// Returns and drawdown are expressed in percent.
type PerformanceMetrics struct {
	Volatility  float64 `json:"volatility"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// Allocation is the share of total value held in one bucket (a ticker or Cash).
type Allocation struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"` // percent of total value
}

// PortfolioSummary is the full valuation of a portfolio at a point in time.
type PortfolioSummary struct {
	PortfolioID             string
	InitialCash             decimal.Decimal
	CurrentCash             decimal.Decimal
	TotalValue              decimal.Decimal
	PositionsValue          decimal.Decimal
	TotalReturn             float64
	Metrics                 PerformanceMetrics
	TotalRealizedGainLoss   decimal.Decimal
	TotalUnrealizedGainLoss decimal.Decimal
	Positions               []PositionValuation
	Allocation              []Allocation
	LastUpdated             time.Time
}
