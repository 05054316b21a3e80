package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/shopspring/decimal"
)

type RealizedGainLossRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRealizedGainLossRepository(db *sql.DB) *RealizedGainLossRepository {
	return &RealizedGainLossRepository{db: db}
}

// WithTx returns a new RealizedGainLossRepository scoped to the provided transaction.
func (r *RealizedGainLossRepository) WithTx(tx *sql.Tx) *RealizedGainLossRepository {
	return &RealizedGainLossRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *RealizedGainLossRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertRealizedGainLoss records the gain or loss locked in by a sell.
func (r *RealizedGainLossRepository) InsertRealizedGainLoss(ctx context.Context, rgl *model.RealizedGainLoss) error {
	query := `
		INSERT INTO realized_gain_loss (id, portfolio_id, ticker, transaction_id, shares_sold,
		cost_basis, sale_proceeds, realized_gain_loss, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		rgl.ID,
		rgl.PortfolioID,
		rgl.Ticker,
		rgl.TransactionID,
		rgl.SharesSold,
		rgl.CostBasis,
		rgl.SaleProceeds,
		rgl.RealizedGainLoss,
		FormatTime(rgl.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert realized gain/loss: %w", err)
	}

	return nil
}

func (r *RealizedGainLossRepository) GetRealizedGainLossByPortfolio(ctx context.Context, portfolioID string) ([]model.RealizedGainLoss, error) {
	query := `
		SELECT id, portfolio_id, ticker, transaction_id, shares_sold, cost_basis,
		sale_proceeds, realized_gain_loss, created_at
		FROM realized_gain_loss
		WHERE portfolio_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query realizedGainLoss table: %w", err)
	}
	defer rows.Close()

	records := []model.RealizedGainLoss{}
	for rows.Next() {
		var rgl model.RealizedGainLoss
		var createdAtStr string

		err := rows.Scan(
			&rgl.ID,
			&rgl.PortfolioID,
			&rgl.Ticker,
			&rgl.TransactionID,
			&rgl.SharesSold,
			&rgl.CostBasis,
			&rgl.SaleProceeds,
			&rgl.RealizedGainLoss,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan realizedGainLoss table results: %w", err)
		}

		rgl.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, err
		}

		records = append(records, rgl)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating realizedGainLoss table: %w", err)
	}

	return records, nil
}

// GetTotalRealizedGainLoss sums the realized gain/loss of a portfolio.
// Amounts are stored as decimal text, so the sum is taken here rather than in SQL.
func (r *RealizedGainLossRepository) GetTotalRealizedGainLoss(ctx context.Context, portfolioID string) (decimal.Decimal, error) {
	records, err := r.GetRealizedGainLossByPortfolio(ctx, portfolioID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, rgl := range records {
		total = total.Add(rgl.RealizedGainLoss)
	}
	return total, nil
}
