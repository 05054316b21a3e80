package model

import "github.com/shopspring/decimal"

// Strategy names.
const (
	StrategyMomentum     = "momentum"
	StrategyConservative = "conservative"
	StrategyAggressive   = "aggressive"
)

// ForecastAnalysis is the signal a strategy derived from a forecast.
// It is returned for every outcome, including hold.
type ForecastAnalysis struct {
	ForecastID             string
	CurrentPrice           decimal.Decimal
	FirstPredictedClose    decimal.Decimal
	LastPredictedClose     decimal.Decimal
	PredictedChange        decimal.Decimal
	PredictedChangePercent float64
	ActionTaken            string
}

// StrategyResult is the outcome of one strategy execution.
type StrategyResult struct {
	Strategy string
	Action   string
	Message  string
	Analysis ForecastAnalysis
	Trade    *TradeResult // nil on hold
}

// StrategyRequest asks for one strategy execution on a ticker.
// An empty ForecastID selects the latest forecast for the ticker.
type StrategyRequest struct {
	PortfolioID string
	Ticker      string
	Strategy    string
	ForecastID  string
}
