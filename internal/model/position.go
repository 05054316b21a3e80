package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a portfolio's holding in one ticker. Its identity is (PortfolioID, Ticker).
//
// TotalCost always equals Quantity * AveragePrice, except after a full sell where
// Quantity and TotalCost are both clamped to zero while AveragePrice keeps the
// historical entry price.
type Position struct {
	PortfolioID  string
	Ticker       string
	Quantity     decimal.Decimal
	AveragePrice decimal.Decimal
	TotalCost    decimal.Decimal
	CurrentPrice decimal.NullDecimal
	LastUpdated  time.Time
}

// IsOpen reports whether the position holds any shares.
func (p Position) IsOpen() bool {
	return p.Quantity.IsPositive()
}

// MarkPrice is the live price when known, otherwise the average entry price.
func (p Position) MarkPrice() decimal.Decimal {
	if p.CurrentPrice.Valid {
		return p.CurrentPrice.Decimal
	}
	return p.AveragePrice
}

// MarketValue values the position at MarkPrice.
func (p Position) MarketValue() decimal.Decimal {
	return p.MarkPrice().Mul(p.Quantity)
}

// PnL is the unrealized profit or loss. Zero without a live price or when flat.
func (p Position) PnL() decimal.Decimal {
	if !p.CurrentPrice.Valid || !p.IsOpen() {
		return decimal.Zero
	}
	return p.CurrentPrice.Decimal.Mul(p.Quantity).Sub(p.TotalCost)
}

// PnLPercent is the live price change relative to the average entry price, in percent.
func (p Position) PnLPercent() float64 {
	if !p.CurrentPrice.Valid || !p.AveragePrice.IsPositive() {
		return 0
	}
	return p.CurrentPrice.Decimal.Sub(p.AveragePrice).
		Div(p.AveragePrice).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
}

// PositionValuation is an open position enriched with its current valuation.
type PositionValuation struct {
	Position
	CurrentValue decimal.Decimal
	PnL          decimal.Decimal
	PnLPercent   float64
}

// Valuation builds the PositionValuation of p.
func (p Position) Valuation() PositionValuation {
	return PositionValuation{
		Position:     p,
		CurrentValue: p.MarketValue(),
		PnL:          p.PnL(),
		PnLPercent:   p.PnLPercent(),
	}
}
