package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/repository"
	"github.com/shopspring/decimal"
)

// quantityEpsilon is the remaining share count below which a position counts as closed.
var quantityEpsilon = decimal.New(1, -9)

// PositionManager maintains weighted-average cost basis for positions.
// It never touches cash; callers run it inside the SQL transaction of an order.
type PositionManager struct {
	positionRepo *repository.PositionRepository
	now          func() time.Time
}

// NewPositionManager creates a new PositionManager.
func NewPositionManager(positionRepo *repository.PositionRepository) *PositionManager {
	return &PositionManager{
		positionRepo: positionRepo,
		now:          time.Now,
	}
}

// Buy adds quantity shares bought at price to the position, creating it when absent.
func (m *PositionManager) Buy(ctx context.Context, tx *sql.Tx, portfolioID, ticker string, quantity, price decimal.Decimal) (model.Position, error) {
	repo := m.positionRepo.WithTx(tx)

	pos, err := repo.GetPosition(ctx, portfolioID, ticker)
	if err != nil && !errors.Is(err, apperrors.ErrNoPosition) {
		return model.Position{}, err
	}
	if errors.Is(err, apperrors.ErrNoPosition) {
		pos = model.Position{PortfolioID: portfolioID, Ticker: ticker}
	}

	pos = applyBuy(pos, quantity, price, m.now().UTC())

	if err := repo.UpsertPosition(ctx, pos); err != nil {
		return model.Position{}, err
	}
	return pos, nil
}

// Sell removes quantity shares sold at price from the position.
// It returns the updated position and the cost basis removed by the sale.
func (m *PositionManager) Sell(ctx context.Context, tx *sql.Tx, portfolioID, ticker string, quantity, price decimal.Decimal) (model.Position, decimal.Decimal, error) {
	repo := m.positionRepo.WithTx(tx)

	pos, err := repo.GetPosition(ctx, portfolioID, ticker)
	if err != nil && !errors.Is(err, apperrors.ErrNoPosition) {
		return model.Position{}, decimal.Zero, err
	}
	if errors.Is(err, apperrors.ErrNoPosition) || !pos.IsOpen() {
		return model.Position{}, decimal.Zero, apperrors.Reject(apperrors.ErrNoPosition, "No position found for %s", ticker)
	}
	if quantity.GreaterThan(pos.Quantity) {
		return model.Position{}, decimal.Zero, apperrors.Reject(apperrors.ErrInsufficientShares,
			"Insufficient shares. Requested: %s, Owned: %s", quantity.String(), pos.Quantity.String())
	}

	pos, costBasis := applySell(pos, quantity, price, m.now().UTC())

	if err := repo.UpsertPosition(ctx, pos); err != nil {
		return model.Position{}, decimal.Zero, err
	}
	return pos, costBasis, nil
}

// applyBuy folds a purchase into the weighted average cost of pos.
func applyBuy(pos model.Position, quantity, price decimal.Decimal, at time.Time) model.Position {
	pos.TotalCost = pos.TotalCost.Add(quantity.Mul(price))
	pos.Quantity = pos.Quantity.Add(quantity)
	if pos.Quantity.IsPositive() {
		pos.AveragePrice = pos.TotalCost.Div(pos.Quantity)
	}
	pos.CurrentPrice = decimal.NewNullDecimal(price)
	pos.LastUpdated = at
	return pos
}

// applySell removes a proportional share of the cost basis. The average price
// is left unchanged; a position that reaches zero keeps it as its last entry price.
func applySell(pos model.Position, quantity, price decimal.Decimal, at time.Time) (model.Position, decimal.Decimal) {
	costBasis := pos.TotalCost.Mul(quantity).Div(pos.Quantity)

	pos.Quantity = pos.Quantity.Sub(quantity)
	pos.TotalCost = pos.TotalCost.Sub(costBasis)
	if pos.Quantity.LessThanOrEqual(quantityEpsilon) {
		costBasis = costBasis.Add(pos.TotalCost)
		pos.Quantity = decimal.Zero
		pos.TotalCost = decimal.Zero
	}

	pos.CurrentPrice = decimal.NewNullDecimal(price)
	pos.LastUpdated = at
	return pos, costBasis
}
