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

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// WithTx returns a new PortfolioRepository scoped to the provided transaction.
func (r *PortfolioRepository) WithTx(tx *sql.Tx) *PortfolioRepository {
	return &PortfolioRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *PortfolioRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetPortfolio retrieves a portfolio by ID.
// Returns ErrPortfolioNotFound if no portfolio with the given ID exists.
func (r *PortfolioRepository) GetPortfolio(ctx context.Context, portfolioID string) (model.Portfolio, error) {
	query := `
		SELECT id, initial_cash, current_cash, total_value, total_return,
		volatility, sharpe_ratio, max_drawdown, created_at, last_updated
		FROM portfolio
		WHERE id = ?
	`

	var p model.Portfolio
	var createdAtStr, lastUpdatedStr string

	err := r.getQuerier().QueryRowContext(ctx, query, portfolioID).Scan(
		&p.ID,
		&p.InitialCash,
		&p.CurrentCash,
		&p.TotalValue,
		&p.TotalReturn,
		&p.Volatility,
		&p.SharpeRatio,
		&p.MaxDrawdown,
		&createdAtStr,
		&lastUpdatedStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to query portfolio: %w", err)
	}

	p.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Portfolio{}, err
	}
	p.LastUpdated, err = ParseTime(lastUpdatedStr)
	if err != nil {
		return model.Portfolio{}, err
	}

	return p, nil
}

// GetPortfolioIDs returns the IDs of every portfolio, ordered by creation.
func (r *PortfolioRepository) GetPortfolioIDs(ctx context.Context) ([]string, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `SELECT id FROM portfolio ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return ids, nil
}

// InsertPortfolio creates a portfolio. An existing portfolio with the same ID is left untouched.
func (r *PortfolioRepository) InsertPortfolio(ctx context.Context, p *model.Portfolio) error {
	query := `
		INSERT INTO portfolio (id, initial_cash, current_cash, total_value, total_return,
		volatility, sharpe_ratio, max_drawdown, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		p.ID,
		p.InitialCash,
		p.CurrentCash,
		p.TotalValue,
		p.TotalReturn,
		p.Volatility,
		p.SharpeRatio,
		p.MaxDrawdown,
		FormatTime(p.CreatedAt),
		FormatTime(p.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}

	return nil
}

// UpdateCash stores a new cash balance and total value after a trade.
func (r *PortfolioRepository) UpdateCash(ctx context.Context, portfolioID string, cash, totalValue decimal.Decimal, at time.Time) error {
	query := `
		UPDATE portfolio
		SET current_cash = ?, total_value = ?, last_updated = ?
		WHERE id = ?
	`

	return r.exec(ctx, query, cash, totalValue, FormatTime(at), portfolioID)
}

// UpdateValuation stores the total value and the derived performance figures.
func (r *PortfolioRepository) UpdateValuation(ctx context.Context, portfolioID string, totalValue decimal.Decimal, totalReturn float64, metrics model.PerformanceMetrics, at time.Time) error {
	query := `
		UPDATE portfolio
		SET total_value = ?, total_return = ?, volatility = ?, sharpe_ratio = ?, max_drawdown = ?, last_updated = ?
		WHERE id = ?
	`

	return r.exec(ctx, query,
		totalValue,
		totalReturn,
		metrics.Volatility,
		metrics.SharpeRatio,
		metrics.MaxDrawdown,
		FormatTime(at),
		portfolioID,
	)
}

func (r *PortfolioRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.getQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrPortfolioNotFound
	}

	return nil
}
