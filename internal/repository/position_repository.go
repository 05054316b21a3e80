package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// PositionRepository provides data access methods for the position table.
// Positions are keyed by (portfolio_id, ticker).
type PositionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPositionRepository creates a new PositionRepository with the provided database connection.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// WithTx returns a new PositionRepository scoped to the provided transaction.
func (r *PositionRepository) WithTx(tx *sql.Tx) *PositionRepository {
	return &PositionRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *PositionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const positionColumns = `portfolio_id, ticker, quantity, average_price, total_cost, current_price, last_updated`

// GetPosition retrieves the position of a portfolio in one ticker.
// Returns ErrNoPosition if the portfolio never held the ticker.
func (r *PositionRepository) GetPosition(ctx context.Context, portfolioID, ticker string) (model.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM position WHERE portfolio_id = ? AND ticker = ?`

	p, err := scanPosition(r.getQuerier().QueryRowContext(ctx, query, portfolioID, ticker))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Position{}, apperrors.ErrNoPosition
	}
	if err != nil {
		return model.Position{}, fmt.Errorf("failed to query position: %w", err)
	}

	return p, nil
}

// GetPositions retrieves every position row of a portfolio, flat ones included, ordered by ticker.
func (r *PositionRepository) GetPositions(ctx context.Context, portfolioID string) ([]model.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM position WHERE portfolio_id = ? ORDER BY ticker ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position table: %w", err)
	}
	defer rows.Close()

	positions := []model.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position table results: %w", err)
		}
		positions = append(positions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position table: %w", err)
	}

	return positions, nil
}

// UpsertPosition inserts the position or replaces the stored row with the same key.
func (r *PositionRepository) UpsertPosition(ctx context.Context, p model.Position) error {
	query := `
		INSERT INTO position (` + positionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, ticker) DO UPDATE SET
			quantity = excluded.quantity,
			average_price = excluded.average_price,
			total_cost = excluded.total_cost,
			current_price = excluded.current_price,
			last_updated = excluded.last_updated
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		p.PortfolioID,
		p.Ticker,
		p.Quantity,
		p.AveragePrice,
		p.TotalCost,
		p.CurrentPrice,
		FormatTime(p.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	return nil
}

// UpdateCurrentPrice stores a refreshed market price. It does not touch quantity or cost.
func (r *PositionRepository) UpdateCurrentPrice(ctx context.Context, portfolioID, ticker string, price decimal.Decimal, at time.Time) error {
	query := `
		UPDATE position
		SET current_price = ?, last_updated = ?
		WHERE portfolio_id = ? AND ticker = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, price, FormatTime(at), portfolioID, ticker)
	if err != nil {
		return fmt.Errorf("failed to update position price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrNoPosition
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (model.Position, error) {
	var p model.Position
	var lastUpdatedStr string

	err := row.Scan(
		&p.PortfolioID,
		&p.Ticker,
		&p.Quantity,
		&p.AveragePrice,
		&p.TotalCost,
		&p.CurrentPrice,
		&lastUpdatedStr,
	)
	if err != nil {
		return model.Position{}, err
	}

	p.LastUpdated, err = ParseTime(lastUpdatedStr)
	if err != nil {
		return model.Position{}, err
	}

	return p, nil
}
