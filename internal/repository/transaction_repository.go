package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
)

// TransactionRepository provides data access methods for the append-only transaction table.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertTransaction appends an executed trade to the ledger.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		INSERT INTO "transaction" (id, portfolio_id, ticker, action, quantity, price, total_value, timestamp, reason, forecast_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var forecastID sql.NullString
	if t.ForecastID != "" {
		forecastID = sql.NullString{String: t.ForecastID, Valid: true}
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.PortfolioID,
		t.Ticker,
		t.Action,
		t.Quantity,
		t.Price,
		t.TotalValue,
		FormatTime(t.Timestamp),
		t.Reason,
		forecastID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// GetTransactions retrieves the transactions of a portfolio, newest first.
// A limit of zero or less returns all of them.
func (r *TransactionRepository) GetTransactions(ctx context.Context, portfolioID string, limit int) ([]model.Transaction, error) {
	query := `
		SELECT id, portfolio_id, ticker, action, quantity, price, total_value, timestamp, reason, forecast_id
		FROM "transaction"
		WHERE portfolio_id = ?
		ORDER BY timestamp DESC, rowid DESC
	`
	args := []any{portfolioID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		var timestampStr string
		var reason, forecastID sql.NullString

		err := rows.Scan(
			&t.ID,
			&t.PortfolioID,
			&t.Ticker,
			&t.Action,
			&t.Quantity,
			&t.Price,
			&t.TotalValue,
			&timestampStr,
			&reason,
			&forecastID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}

		t.Timestamp, err = ParseTime(timestampStr)
		if err != nil {
			return nil, err
		}
		t.Reason = reason.String
		t.ForecastID = forecastID.String

		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}
