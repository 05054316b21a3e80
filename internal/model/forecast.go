package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Forecast is a model's predicted price path for one ticker.
type Forecast struct {
	ID        string
	Ticker    string
	Horizon   string // e.g. "5d"
	ModelName string
	CreatedAt time.Time
	Points    []ForecastPoint // ordered by Timestamp
}

// ForecastPoint is one predicted close.
type ForecastPoint struct {
	Timestamp      time.Time
	PredictedClose decimal.Decimal
}

// ForecastEvaluation compares a forecast with the closes that actually happened.
// The error metrics are nil while no forecast day has a close yet.
type ForecastEvaluation struct {
	ForecastID      string
	Ticker          string
	ModelName       string
	Horizon         string
	ForecastDate    time.Time
	EvaluatedAt     time.Time
	Points          []EvaluatedPoint
	EvaluatedPoints int
	TotalPoints     int
	MAE             *float64
	RMSE            *float64
	MAPE            *float64 // percent
}

// EvaluatedPoint is a predicted close next to the actual close of the same day.
// Actual, Error and ErrorPercent are nil when the day has no close.
type EvaluatedPoint struct {
	Date         time.Time
	Predicted    float64
	Actual       *float64
	Error        *float64 // actual - predicted
	ErrorPercent *float64 // Error relative to the prediction
}
