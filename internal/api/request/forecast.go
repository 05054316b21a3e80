package request

import "github.com/shopspring/decimal"

// CreateForecastRequest represents the request body for storing a model forecast.
type CreateForecastRequest struct {
	Ticker    string                 `json:"ticker"`
	Horizon   string                 `json:"horizon"`
	ModelName string                 `json:"model_name,omitempty"`
	Points    []ForecastPointRequest `json:"points"`
}

// ForecastPointRequest is one predicted close. Timestamp is RFC3339 or YYYY-MM-DD.
type ForecastPointRequest struct {
	Timestamp      string              `json:"timestamp"`
	PredictedClose decimal.NullDecimal `json:"predicted_close"`
}
