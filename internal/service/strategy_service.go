package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/metrics"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// quantityPlaces is the precision strategy-sized buys are rounded down to.
const quantityPlaces = 8

// policy is one row of the strategy table. Thresholds are percent changes of
// the forecast, compared with strict inequalities.
type policy struct {
	buyAbove     float64
	buyFraction  decimal.Decimal // of available cash
	sells        bool
	sellBelow    float64
	sellFraction decimal.Decimal // of held quantity
	holdNote     string
}

var policies = map[string]policy{
	model.StrategyMomentum: {
		buyAbove:     2,
		buyFraction:  decimal.RequireFromString("0.10"),
		sells:        true,
		sellBelow:    -2,
		sellFraction: decimal.RequireFromString("0.50"),
	},
	model.StrategyConservative: {
		buyAbove:    5,
		buyFraction: decimal.RequireFromString("0.05"),
		holdNote:    " (threshold: 5%)",
	},
	model.StrategyAggressive: {
		buyAbove:     1,
		buyFraction:  decimal.RequireFromString("0.20"),
		sells:        true,
		sellBelow:    -1,
		sellFraction: decimal.RequireFromString("0.75"),
	},
}

// decide returns the action for a predicted change and the quantity to trade.
// A buy needs a flat position and a sell a long one; a trade that sizes to
// zero shares becomes a hold.
func (p policy) decide(changePercent float64, held, cash, price decimal.Decimal) (string, decimal.Decimal) {
	switch {
	case changePercent > p.buyAbove && !held.IsPositive():
		if !price.IsPositive() {
			return model.ActionHold, decimal.Zero
		}
		quantity := cash.Mul(p.buyFraction).Div(price).Truncate(quantityPlaces)
		if quantity.IsPositive() {
			return model.ActionBuy, quantity
		}
	case p.sells && changePercent < p.sellBelow && held.IsPositive():
		quantity := held.Mul(p.sellFraction)
		if quantity.IsPositive() {
			return model.ActionSell, quantity
		}
	}
	return model.ActionHold, decimal.Zero
}

// StrategyService turns forecasts into trades.
type StrategyService struct {
	portfolios *PortfolioService
	forecasts  *ForecastService
	oracle     PriceOracle
	log        zerolog.Logger
}

// NewStrategyService creates a new StrategyService.
func NewStrategyService(portfolios *PortfolioService, forecasts *ForecastService, oracle PriceOracle, log zerolog.Logger) *StrategyService {
	return &StrategyService{
		portfolios: portfolios,
		forecasts:  forecasts,
		oracle:     oracle,
		log:        log.With().Str("component", "strategy_service").Logger(),
	}
}

// ExecuteStrategy evaluates req.Strategy (momentum by default) against a
// forecast for req.Ticker and executes at most one trade.
//
// The predicted change is (last - first) / first * 100 over the forecast's
// closes. The held quantity and cash are read under the portfolio lock, which
// is kept until the trade is executed.
func (s *StrategyService) ExecuteStrategy(ctx context.Context, req model.StrategyRequest) (model.StrategyResult, error) {
	strategy := strings.ToLower(strings.TrimSpace(req.Strategy))
	if strategy == "" {
		strategy = model.StrategyMomentum
	}
	p, ok := policies[strategy]
	if !ok {
		return model.StrategyResult{}, apperrors.Reject(apperrors.ErrUnknownStrategy, "Unknown strategy: %s", req.Strategy)
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return model.StrategyResult{}, apperrors.Reject(apperrors.ErrValidation, "Ticker is required")
	}

	forecast, err := s.loadForecast(ctx, ticker, req.ForecastID)
	if err != nil {
		return model.StrategyResult{}, err
	}
	if len(forecast.Points) < 2 || !forecast.Points[0].PredictedClose.IsPositive() {
		return model.StrategyResult{}, apperrors.Reject(apperrors.ErrInsufficientForecast, "Insufficient forecast data")
	}

	price, err := s.oracle.CurrentPrice(ctx, ticker)
	if err != nil {
		return model.StrategyResult{}, err
	}

	first := forecast.Points[0].PredictedClose
	last := forecast.Points[len(forecast.Points)-1].PredictedClose
	change := last.Sub(first)
	changePercent := change.Div(first).Mul(decimal.NewFromInt(100)).InexactFloat64()

	result := model.StrategyResult{
		Strategy: strategy,
		Analysis: model.ForecastAnalysis{
			ForecastID:             forecast.ID,
			CurrentPrice:           price,
			FirstPredictedClose:    first,
			LastPredictedClose:     last,
			PredictedChange:        change,
			PredictedChangePercent: changePercent,
		},
	}

	portfolioID := s.portfolios.portfolioID(req.PortfolioID)
	order := model.TradeOrder{
		PortfolioID: portfolioID,
		Ticker:      ticker,
		Price:       decimal.NewNullDecimal(price),
		Reason:      fmt.Sprintf("forecast_%s_%s", strategy, forecast.ID),
		ForecastID:  forecast.ID,
	}

	unlock := s.portfolios.lock(portfolioID)
	action, trade, err := s.decideAndExecute(ctx, p, changePercent, &order)
	unlock()

	if action != model.ActionHold {
		err = s.portfolios.afterTrade(ctx, action, order, trade, err)
	}
	if err != nil {
		return model.StrategyResult{}, err
	}

	result.Action = action
	result.Analysis.ActionTaken = action
	if action == model.ActionHold {
		result.Message = fmt.Sprintf("Hold - Forecast change: %.2f%%%s", changePercent, p.holdNote)
	} else {
		result.Trade = &trade
		result.Message = trade.Message
	}

	metrics.StrategyDecisions.WithLabelValues(strategy, action).Inc()
	s.log.Info().
		Str("portfolio_id", portfolioID).
		Str("ticker", ticker).
		Str("strategy", strategy).
		Str("forecast_id", forecast.ID).
		Float64("predicted_change_percent", changePercent).
		Str("action", action).
		Msg("strategy executed")

	return result, nil
}

// decideAndExecute reads the position and cash, picks the action and executes
// it. The caller holds the portfolio lock. order.Quantity is set for trades.
func (s *StrategyService) decideAndExecute(ctx context.Context, p policy, changePercent float64, order *model.TradeOrder) (string, model.TradeResult, error) {
	portfolio, err := s.portfolios.getOrCreate(ctx, s.portfolios.portfolioRepo, order.PortfolioID)
	if err != nil {
		return model.ActionHold, model.TradeResult{}, err
	}

	held := decimal.Zero
	pos, err := s.portfolios.positionRepo.GetPosition(ctx, order.PortfolioID, order.Ticker)
	switch {
	case err == nil:
		held = pos.Quantity
	case !errors.Is(err, apperrors.ErrNoPosition):
		return model.ActionHold, model.TradeResult{}, err
	}

	action, quantity := p.decide(changePercent, held, portfolio.CurrentCash, order.Price.Decimal)
	order.Quantity = quantity

	var trade model.TradeResult
	switch action {
	case model.ActionBuy:
		trade, err = s.portfolios.executeBuy(ctx, *order)
	case model.ActionSell:
		trade, err = s.portfolios.executeSell(ctx, *order)
	}
	return action, trade, err
}

func (s *StrategyService) loadForecast(ctx context.Context, ticker, forecastID string) (model.Forecast, error) {
	if forecastID == "" {
		return s.forecasts.GetLatestForecast(ctx, ticker)
	}

	f, err := s.forecasts.GetForecast(ctx, forecastID)
	if err != nil {
		return model.Forecast{}, err
	}
	if f.Ticker != ticker {
		return model.Forecast{}, apperrors.Reject(apperrors.ErrValidation, "Forecast %s is for %s, not %s", forecastID, f.Ticker, ticker)
	}
	return f, nil
}
