package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/repository"
	"github.com/rs/zerolog"
)

// ForecastService stores model forecasts and serves them to the strategy engine.
type ForecastService struct {
	db           *sql.DB
	forecastRepo *repository.ForecastRepository
	history      PriceHistory
	log          zerolog.Logger
	now          func() time.Time
}

// NewForecastService creates a new ForecastService.
// history supplies the actual closes forecasts are evaluated against.
func NewForecastService(db *sql.DB, forecastRepo *repository.ForecastRepository, history PriceHistory, log zerolog.Logger) *ForecastService {
	return &ForecastService{
		db:           db,
		forecastRepo: forecastRepo,
		history:      history,
		log:          log.With().Str("component", "forecast_service").Logger(),
		now:          time.Now,
	}
}

// CreateForecast stores f with a new ID and creation time. Points are ordered by timestamp.
func (s *ForecastService) CreateForecast(ctx context.Context, f model.Forecast) (model.Forecast, error) {
	f.Ticker = strings.ToUpper(strings.TrimSpace(f.Ticker))
	if f.Ticker == "" {
		return model.Forecast{}, apperrors.Reject(apperrors.ErrValidation, "Ticker is required")
	}
	if len(f.Points) == 0 {
		return model.Forecast{}, apperrors.Reject(apperrors.ErrValidation, "Forecast must contain at least one point")
	}

	f.ID = uuid.New().String()
	f.CreatedAt = s.now().UTC()
	f.Points = slices.Clone(f.Points)
	slices.SortStableFunc(f.Points, func(a, b model.ForecastPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.forecastRepo.WithTx(tx).InsertForecast(ctx, &f); err != nil {
		return model.Forecast{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Forecast{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Info().
		Str("forecast_id", f.ID).
		Str("ticker", f.Ticker).
		Str("horizon", f.Horizon).
		Int("points", len(f.Points)).
		Msg("stored forecast")

	return f, nil
}

// GetForecast returns the forecast with the given ID.
func (s *ForecastService) GetForecast(ctx context.Context, forecastID string) (model.Forecast, error) {
	f, err := s.forecastRepo.GetForecast(ctx, forecastID)
	if errors.Is(err, apperrors.ErrForecastNotFound) {
		return model.Forecast{}, apperrors.Reject(apperrors.ErrForecastNotFound, "Forecast %s not found", forecastID)
	}
	return f, err
}

// GetLatestForecast returns the most recent forecast for ticker.
func (s *ForecastService) GetLatestForecast(ctx context.Context, ticker string) (model.Forecast, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	f, err := s.forecastRepo.GetLatestForecast(ctx, ticker)
	if errors.Is(err, apperrors.ErrForecastNotFound) {
		return model.Forecast{}, apperrors.Reject(apperrors.ErrForecastNotFound, "No forecast found for %s", ticker)
	}
	return f, err
}
