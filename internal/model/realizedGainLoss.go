package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RealizedGainLoss records the profit or loss locked in by one sell.
type RealizedGainLoss struct {
	ID               string
	PortfolioID      string
	Ticker           string
	TransactionID    string
	SharesSold       decimal.Decimal
	CostBasis        decimal.Decimal // proportional cost basis removed by the sell
	SaleProceeds     decimal.Decimal
	RealizedGainLoss decimal.Decimal // SaleProceeds - CostBasis
	CreatedAt        time.Time
}
