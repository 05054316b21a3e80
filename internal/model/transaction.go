package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction actions.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionHold = "hold"
)

// Transaction is the immutable record of one executed buy or sell.
type Transaction struct {
	ID          string
	PortfolioID string
	Ticker      string
	Action      string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	TotalValue  decimal.Decimal // Quantity * Price
	Timestamp   time.Time
	Reason      string
	ForecastID  string
}

// TradeOrder is a request to buy or sell.
type TradeOrder struct {
	PortfolioID string
	Ticker      string
	Quantity    decimal.Decimal
	Price       decimal.NullDecimal // resolved from the price oracle when not set
	Reason      string
	ForecastID  string
}

// TradeResult is the outcome of an executed order.
// Position is nil when a sell closed the position.
type TradeResult struct {
	TransactionID    string
	Action           string
	Message          string
	Ticker           string
	Quantity         decimal.Decimal
	Price            decimal.Decimal
	RemainingCash    decimal.Decimal
	Position         *Position
	RealizedGainLoss decimal.NullDecimal
}
