package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
)

// ForecastRepository provides data access methods for the forecast and forecast_point tables.
type ForecastRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewForecastRepository creates a new ForecastRepository with the provided database connection.
func NewForecastRepository(db *sql.DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// WithTx returns a new ForecastRepository scoped to the provided transaction.
func (r *ForecastRepository) WithTx(tx *sql.Tx) *ForecastRepository {
	return &ForecastRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *ForecastRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertForecast stores a forecast and its points. Call it inside a transaction
// so a forecast is never stored without its points.
func (r *ForecastRepository) InsertForecast(ctx context.Context, f *model.Forecast) error {
	q := r.getQuerier()

	_, err := q.ExecContext(ctx,
		`INSERT INTO forecast (id, ticker, horizon, model_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Ticker, f.Horizon, f.ModelName, FormatTime(f.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert forecast: %w", err)
	}

	for i, p := range f.Points {
		_, err := q.ExecContext(ctx,
			`INSERT INTO forecast_point (forecast_id, idx, timestamp, predicted_close) VALUES (?, ?, ?, ?)`,
			f.ID, i, FormatTime(p.Timestamp), p.PredictedClose,
		)
		if err != nil {
			return fmt.Errorf("failed to insert forecast point: %w", err)
		}
	}

	return nil
}

// GetForecast retrieves a forecast with its points.
// Returns ErrForecastNotFound if no forecast with the given ID exists.
func (r *ForecastRepository) GetForecast(ctx context.Context, forecastID string) (model.Forecast, error) {
	query := `SELECT id, ticker, horizon, model_name, created_at FROM forecast WHERE id = ?`
	return r.getForecast(ctx, query, forecastID)
}

// GetLatestForecast retrieves the most recently created forecast for a ticker.
// Returns ErrForecastNotFound if the ticker has no forecasts.
func (r *ForecastRepository) GetLatestForecast(ctx context.Context, ticker string) (model.Forecast, error) {
	query := `
		SELECT id, ticker, horizon, model_name, created_at
		FROM forecast
		WHERE ticker = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`
	return r.getForecast(ctx, query, ticker)
}

func (r *ForecastRepository) getForecast(ctx context.Context, query string, arg string) (model.Forecast, error) {
	var f model.Forecast
	var createdAtStr string

	err := r.getQuerier().QueryRowContext(ctx, query, arg).Scan(
		&f.ID,
		&f.Ticker,
		&f.Horizon,
		&f.ModelName,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Forecast{}, apperrors.ErrForecastNotFound
	}
	if err != nil {
		return model.Forecast{}, fmt.Errorf("failed to query forecast: %w", err)
	}

	f.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Forecast{}, err
	}

	f.Points, err = r.getPoints(ctx, f.ID)
	if err != nil {
		return model.Forecast{}, err
	}

	return f, nil
}

func (r *ForecastRepository) getPoints(ctx context.Context, forecastID string) ([]model.ForecastPoint, error) {
	rows, err := r.getQuerier().QueryContext(ctx,
		`SELECT timestamp, predicted_close FROM forecast_point WHERE forecast_id = ? ORDER BY timestamp ASC, idx ASC`,
		forecastID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast_point table: %w", err)
	}
	defer rows.Close()

	points := []model.ForecastPoint{}
	for rows.Next() {
		var p model.ForecastPoint
		var timestampStr string

		if err := rows.Scan(&timestampStr, &p.PredictedClose); err != nil {
			return nil, fmt.Errorf("failed to scan forecast_point table results: %w", err)
		}

		p.Timestamp, err = ParseTime(timestampStr)
		if err != nil {
			return nil, err
		}

		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast_point table: %w", err)
	}

	return points, nil
}
