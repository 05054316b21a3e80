package handlers

import (
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
)

// PositionResponse is an open position with its current valuation.
type PositionResponse struct {
	Ticker       string    `json:"ticker"`
	Quantity     float64   `json:"quantity"`
	AveragePrice float64   `json:"average_price"`
	TotalCost    float64   `json:"total_cost"`
	CurrentPrice float64   `json:"current_price"`
	CurrentValue float64   `json:"current_value"`
	PnL          float64   `json:"pnl"`
	PnLPercent   float64   `json:"pnl_percent"`
	LastUpdated  time.Time `json:"last_updated"`
}

// SummaryResponse is the portfolio summary.
type SummaryResponse struct {
	PortfolioID             string             `json:"portfolio_id"`
	InitialCash             float64            `json:"initial_cash"`
	CurrentCash             float64            `json:"current_cash"`
	TotalValue              float64            `json:"total_value"`
	PositionsValue          float64            `json:"positions_value"`
	TotalReturn             float64            `json:"total_return"`
	Volatility              float64            `json:"volatility"`
	SharpeRatio             float64            `json:"sharpe_ratio"`
	MaxDrawdown             float64            `json:"max_drawdown"`
	TotalRealizedGainLoss   float64            `json:"total_realized_gain_loss"`
	TotalUnrealizedGainLoss float64            `json:"total_unrealized_gain_loss"`
	NumPositions            int                `json:"num_positions"`
	Positions               []PositionResponse `json:"positions"`
	Allocation              []model.Allocation `json:"allocation"`
	LastUpdated             time.Time          `json:"last_updated"`
}

// TransactionResponse is one ledger entry.
type TransactionResponse struct {
	ID         string    `json:"id"`
	Ticker     string    `json:"ticker"`
	Action     string    `json:"action"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	TotalValue float64   `json:"total_value"`
	Timestamp  time.Time `json:"timestamp"`
	Reason     string    `json:"reason,omitempty"`
	ForecastID string    `json:"forecast_id,omitempty"`
}

// TradeResponse is the outcome of an executed buy or sell.
type TradeResponse struct {
	TransactionID    string            `json:"transaction_id"`
	Action           string            `json:"action"`
	Ticker           string            `json:"ticker"`
	Quantity         float64           `json:"quantity"`
	Price            float64           `json:"price"`
	RemainingCash    float64           `json:"remaining_cash"`
	RealizedGainLoss *float64          `json:"realized_gain_loss,omitempty"`
	Position         *PositionResponse `json:"position"`
}

// AnalysisResponse is the forecast analysis behind a strategy decision.
type AnalysisResponse struct {
	ForecastID             string  `json:"forecast_id"`
	CurrentPrice           float64 `json:"current_price"`
	FirstPredictedClose    float64 `json:"first_predicted_close"`
	LastPredictedClose     float64 `json:"last_predicted_close"`
	PredictedChange        float64 `json:"predicted_change"`
	PredictedChangePercent float64 `json:"predicted_change_percent"`
	ActionTaken            string  `json:"action_taken"`
}

// StrategyResponse is the outcome of a strategy execution.
type StrategyResponse struct {
	Strategy string           `json:"strategy"`
	Action   string           `json:"action"`
	Analysis AnalysisResponse `json:"analysis"`
	Trade    *TradeResponse   `json:"trade,omitempty"`
}

// PerformancePointResponse is one day of the performance chart.
// Returns is the total return in percent of the initial cash.
type PerformancePointResponse struct {
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Returns float64   `json:"returns"`
}

// ForecastPointResponse is one predicted close.
type ForecastPointResponse struct {
	Timestamp      time.Time `json:"timestamp"`
	PredictedClose float64   `json:"predicted_close"`
}

// ForecastResponse is a stored forecast.
type ForecastResponse struct {
	ID        string                  `json:"id"`
	Ticker    string                  `json:"ticker"`
	Horizon   string                  `json:"horizon"`
	ModelName string                  `json:"model_name,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	Points    []ForecastPointResponse `json:"points"`
}

// EvaluatedPointResponse is a predicted close next to the actual close of the day.
type EvaluatedPointResponse struct {
	Date         time.Time `json:"date"`
	Predicted    float64   `json:"predicted"`
	Actual       *float64  `json:"actual"`
	Error        *float64  `json:"error"`
	ErrorPercent *float64  `json:"error_percent"`
	HasActual    bool      `json:"has_actual"`
}

// ErrorMetricsResponse aggregates the errors of the evaluated days.
type ErrorMetricsResponse struct {
	MAE                 *float64 `json:"mae"`
	RMSE                *float64 `json:"rmse"`
	MAPE                *float64 `json:"mape"`
	EvaluatedPoints     int      `json:"evaluated_points"`
	TotalForecastPoints int      `json:"total_forecast_points"`
}

// ForecastEvaluationResponse is a forecast scored against actual closes.
type ForecastEvaluationResponse struct {
	ForecastID   string                   `json:"forecast_id"`
	Ticker       string                   `json:"ticker"`
	ModelName    string                   `json:"model_name,omitempty"`
	Horizon      string                   `json:"horizon"`
	ForecastDate time.Time                `json:"forecast_date"`
	EvaluatedAt  time.Time                `json:"evaluated_at"`
	Points       []EvaluatedPointResponse `json:"points"`
	ErrorMetrics ErrorMetricsResponse     `json:"error_metrics"`
}

func newPositionResponse(v model.PositionValuation) PositionResponse {
	return PositionResponse{
		Ticker:       v.Ticker,
		Quantity:     v.Quantity.InexactFloat64(),
		AveragePrice: v.AveragePrice.InexactFloat64(),
		TotalCost:    v.TotalCost.InexactFloat64(),
		CurrentPrice: v.MarkPrice().InexactFloat64(),
		CurrentValue: v.CurrentValue.InexactFloat64(),
		PnL:          v.PnL.InexactFloat64(),
		PnLPercent:   v.PnLPercent,
		LastUpdated:  v.LastUpdated,
	}
}

func newPositionResponses(valuations []model.PositionValuation) []PositionResponse {
	out := make([]PositionResponse, len(valuations))
	for i, v := range valuations {
		out[i] = newPositionResponse(v)
	}
	return out
}

func newSummaryResponse(s model.PortfolioSummary) SummaryResponse {
	return SummaryResponse{
		PortfolioID:             s.PortfolioID,
		InitialCash:             s.InitialCash.InexactFloat64(),
		CurrentCash:             s.CurrentCash.InexactFloat64(),
		TotalValue:              s.TotalValue.InexactFloat64(),
		PositionsValue:          s.PositionsValue.InexactFloat64(),
		TotalReturn:             s.TotalReturn,
		Volatility:              s.Metrics.Volatility,
		SharpeRatio:             s.Metrics.SharpeRatio,
		MaxDrawdown:             s.Metrics.MaxDrawdown,
		TotalRealizedGainLoss:   s.TotalRealizedGainLoss.InexactFloat64(),
		TotalUnrealizedGainLoss: s.TotalUnrealizedGainLoss.InexactFloat64(),
		NumPositions:            len(s.Positions),
		Positions:               newPositionResponses(s.Positions),
		Allocation:              s.Allocation,
		LastUpdated:             s.LastUpdated,
	}
}

func newTransactionResponses(txns []model.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		out[i] = TransactionResponse{
			ID:         t.ID,
			Ticker:     t.Ticker,
			Action:     t.Action,
			Quantity:   t.Quantity.InexactFloat64(),
			Price:      t.Price.InexactFloat64(),
			TotalValue: t.TotalValue.InexactFloat64(),
			Timestamp:  t.Timestamp,
			Reason:     t.Reason,
			ForecastID: t.ForecastID,
		}
	}
	return out
}

func newTradeResponse(t model.TradeResult) *TradeResponse {
	out := &TradeResponse{
		TransactionID: t.TransactionID,
		Action:        t.Action,
		Ticker:        t.Ticker,
		Quantity:      t.Quantity.InexactFloat64(),
		Price:         t.Price.InexactFloat64(),
		RemainingCash: t.RemainingCash.InexactFloat64(),
	}
	if t.RealizedGainLoss.Valid {
		gain := t.RealizedGainLoss.Decimal.InexactFloat64()
		out.RealizedGainLoss = &gain
	}
	if t.Position != nil {
		pos := newPositionResponse(t.Position.Valuation())
		out.Position = &pos
	}
	return out
}

func newStrategyResponse(r model.StrategyResult) StrategyResponse {
	out := StrategyResponse{
		Strategy: r.Strategy,
		Action:   r.Action,
		Analysis: AnalysisResponse{
			ForecastID:             r.Analysis.ForecastID,
			CurrentPrice:           r.Analysis.CurrentPrice.InexactFloat64(),
			FirstPredictedClose:    r.Analysis.FirstPredictedClose.InexactFloat64(),
			LastPredictedClose:     r.Analysis.LastPredictedClose.InexactFloat64(),
			PredictedChange:        r.Analysis.PredictedChange.InexactFloat64(),
			PredictedChangePercent: r.Analysis.PredictedChangePercent,
			ActionTaken:            r.Analysis.ActionTaken,
		},
	}
	if r.Trade != nil {
		out.Trade = newTradeResponse(*r.Trade)
	}
	return out
}

func newForecastResponse(f model.Forecast) ForecastResponse {
	points := make([]ForecastPointResponse, len(f.Points))
	for i, p := range f.Points {
		points[i] = ForecastPointResponse{
			Timestamp:      p.Timestamp,
			PredictedClose: p.PredictedClose.InexactFloat64(),
		}
	}
	return ForecastResponse{
		ID:        f.ID,
		Ticker:    f.Ticker,
		Horizon:   f.Horizon,
		ModelName: f.ModelName,
		CreatedAt: f.CreatedAt,
		Points:    points,
	}
}

func newPerformanceResponses(history []model.PerformanceSnapshot) []PerformancePointResponse {
	out := make([]PerformancePointResponse, len(history))
	for i, s := range history {
		out[i] = PerformancePointResponse{
			Date:    s.Date,
			Value:   s.TotalValue,
			Returns: s.TotalReturn,
		}
	}
	return out
}

func newForecastEvaluationResponse(e model.ForecastEvaluation) ForecastEvaluationResponse {
	points := make([]EvaluatedPointResponse, len(e.Points))
	for i, p := range e.Points {
		points[i] = EvaluatedPointResponse{
			Date:         p.Date,
			Predicted:    p.Predicted,
			Actual:       p.Actual,
			Error:        p.Error,
			ErrorPercent: p.ErrorPercent,
			HasActual:    p.Actual != nil,
		}
	}
	return ForecastEvaluationResponse{
		ForecastID:   e.ForecastID,
		Ticker:       e.Ticker,
		ModelName:    e.ModelName,
		Horizon:      e.Horizon,
		ForecastDate: e.ForecastDate,
		EvaluatedAt:  e.EvaluatedAt,
		Points:       points,
		ErrorMetrics: ErrorMetricsResponse{
			MAE:                 e.MAE,
			RMSE:                e.RMSE,
			MAPE:                e.MAPE,
			EvaluatedPoints:     e.EvaluatedPoints,
			TotalForecastPoints: e.TotalPoints,
		},
	}
}
