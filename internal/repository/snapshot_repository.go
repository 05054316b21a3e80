package repository

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
)

// SnapshotRepository provides data access methods for the performance_snapshot table.
// Snapshots of a portfolio are ordered by a per-portfolio sequence number.
type SnapshotRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// WithTx returns a new SnapshotRepository scoped to the provided transaction.
func (r *SnapshotRepository) WithTx(tx *sql.Tx) *SnapshotRepository {
	return &SnapshotRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SnapshotRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// AppendSnapshot stores s as the newest snapshot of its portfolio and evicts
// the oldest ones so that at most keep snapshots remain.
func (r *SnapshotRepository) AppendSnapshot(ctx context.Context, s *model.PerformanceSnapshot, keep int) error {
	q := r.getQuerier()

	var seq int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM performance_snapshot WHERE portfolio_id = ?`,
		s.PortfolioID,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("failed to read snapshot sequence: %w", err)
	}

	query := `
		INSERT INTO performance_snapshot (id, portfolio_id, seq, date, total_value, cash, positions_value, total_return)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		s.ID,
		s.PortfolioID,
		seq,
		FormatTime(s.Date),
		s.TotalValue,
		s.Cash,
		s.PositionsValue,
		s.TotalReturn,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if keep > 0 {
		_, err = q.ExecContext(ctx,
			`DELETE FROM performance_snapshot WHERE portfolio_id = ? AND seq <= ?`,
			s.PortfolioID, seq-int64(keep),
		)
		if err != nil {
			return fmt.Errorf("failed to trim snapshots: %w", err)
		}
	}

	return nil
}

// GetRecentSnapshots returns up to limit of the most recent snapshots, oldest first.
func (r *SnapshotRepository) GetRecentSnapshots(ctx context.Context, portfolioID string, limit int) ([]model.PerformanceSnapshot, error) {
	query := `
		SELECT id, portfolio_id, date, total_value, cash, positions_value, total_return
		FROM performance_snapshot
		WHERE portfolio_id = ?
		ORDER BY seq DESC
		LIMIT ?
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance_snapshot table: %w", err)
	}
	defer rows.Close()

	snapshots := []model.PerformanceSnapshot{}
	for rows.Next() {
		var s model.PerformanceSnapshot
		var dateStr string

		err := rows.Scan(
			&s.ID,
			&s.PortfolioID,
			&dateStr,
			&s.TotalValue,
			&s.Cash,
			&s.PositionsValue,
			&s.TotalReturn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan performance_snapshot table results: %w", err)
		}

		s.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}

		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating performance_snapshot table: %w", err)
	}

	slices.Reverse(snapshots)
	return snapshots, nil
}
