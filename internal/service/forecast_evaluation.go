package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/yahoo"
	"gonum.org/v1/gonum/stat"
)

// PriceHistory supplies daily closes between two dates.
type PriceHistory interface {
	DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.Close, error)
}

// EvaluateForecast compares a forecast with the closes that have happened since.
//
// The forecast is forecastID when given, otherwise the latest forecast for
// ticker. Points and closes are matched on the UTC calendar day. Days without
// a close yet are returned unevaluated and do not count towards the metrics.
func (s *ForecastService) EvaluateForecast(ctx context.Context, ticker, forecastID string) (model.ForecastEvaluation, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var (
		f   model.Forecast
		err error
	)
	switch {
	case forecastID != "":
		f, err = s.GetForecast(ctx, forecastID)
	case ticker != "":
		f, err = s.GetLatestForecast(ctx, ticker)
	default:
		return model.ForecastEvaluation{}, apperrors.Reject(apperrors.ErrValidation, "Ticker or forecast ID is required")
	}
	if err != nil {
		return model.ForecastEvaluation{}, err
	}
	if ticker != "" && ticker != f.Ticker {
		return model.ForecastEvaluation{}, apperrors.Reject(apperrors.ErrValidation,
			"Forecast %s is for %s, not %s", f.ID, f.Ticker, ticker)
	}

	now := s.now().UTC()
	eval := model.ForecastEvaluation{
		ForecastID:   f.ID,
		Ticker:       f.Ticker,
		ModelName:    f.ModelName,
		Horizon:      f.Horizon,
		ForecastDate: f.CreatedAt,
		EvaluatedAt:  now,
		Points:       make([]model.EvaluatedPoint, len(f.Points)),
		TotalPoints:  len(f.Points),
	}
	for i, p := range f.Points {
		eval.Points[i] = model.EvaluatedPoint{
			Date:      tradingDay(p.Timestamp),
			Predicted: p.PredictedClose.InexactFloat64(),
		}
	}
	if len(eval.Points) == 0 || eval.Points[0].Date.After(now) {
		return eval, nil
	}

	start := eval.Points[0].Date
	end := eval.Points[len(eval.Points)-1].Date.AddDate(0, 0, 1)
	closes, err := s.history.DailyCloses(ctx, f.Ticker, start, end)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", f.Ticker).Str("forecast_id", f.ID).Msg("failed to fetch actual closes")
		return model.ForecastEvaluation{}, apperrors.Reject(apperrors.ErrPriceUnavailable,
			"Could not fetch actual price data for %s", f.Ticker)
	}

	actuals := make(map[time.Time]float64, len(closes))
	for _, c := range closes {
		if c.Price > 0 {
			actuals[tradingDay(c.Date)] = c.Price
		}
	}

	var absErrs, sqErrs, pctErrs []float64
	for i := range eval.Points {
		p := &eval.Points[i]
		actual, ok := actuals[p.Date]
		if !ok {
			continue
		}

		diff := actual - p.Predicted
		p.Actual = &actual
		p.Error = &diff
		if p.Predicted != 0 {
			pct := diff / p.Predicted * 100
			p.ErrorPercent = &pct
		}

		absErrs = append(absErrs, math.Abs(diff))
		sqErrs = append(sqErrs, diff*diff)
		pctErrs = append(pctErrs, math.Abs(diff/actual)*100)
	}

	eval.EvaluatedPoints = len(absErrs)
	if eval.EvaluatedPoints > 0 {
		mae := stat.Mean(absErrs, nil)
		rmse := math.Sqrt(stat.Mean(sqErrs, nil))
		mape := stat.Mean(pctErrs, nil)
		eval.MAE, eval.RMSE, eval.MAPE = &mae, &rmse, &mape
	}

	s.log.Debug().
		Str("forecast_id", f.ID).
		Str("ticker", f.Ticker).
		Int("evaluated_points", eval.EvaluatedPoints).
		Int("total_points", eval.TotalPoints).
		Msg("evaluated forecast")

	return eval, nil
}

func tradingDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
