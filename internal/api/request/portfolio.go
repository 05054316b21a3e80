package request

import "github.com/shopspring/decimal"

// TradeRequest represents the request body of a buy or sell.
// Quantity and Price accept JSON numbers or numeric strings.
type TradeRequest struct {
	PortfolioID string              `json:"portfolio_id"`
	Ticker      string              `json:"ticker"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	Price       decimal.NullDecimal `json:"price,omitempty"`
	Reason      string              `json:"reason,omitempty"`
}

// HoldRequest represents the request body of a hold decision.
type HoldRequest struct {
	PortfolioID string `json:"portfolio_id"`
	Ticker      string `json:"ticker"`
	Reason      string `json:"reason,omitempty"`
}

// SnapshotRequest represents the optional request body of a snapshot.
type SnapshotRequest struct {
	PortfolioID string `json:"portfolio_id"`
}

// StrategyRequest represents the request body of a strategy execution.
type StrategyRequest struct {
	PortfolioID string `json:"portfolio_id"`
	Ticker      string `json:"ticker"`
	Strategy    string `json:"strategy,omitempty"`
	ForecastID  string `json:"forecast_id,omitempty"`
}
