package handlers

import (
	"context"
	"net/http"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/request"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/response"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/service"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/validation"
)

// PortfolioHandler handles HTTP requests for portfolio endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the portfolio and strategy services.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	strategyService  *service.StrategyService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependencies.
func NewPortfolioHandler(portfolioService *service.PortfolioService, strategyService *service.StrategyService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		strategyService:  strategyService,
	}
}

// Summary handles GET requests for the valuation and risk metrics of a portfolio.
// The portfolio is created with the default cash when it does not exist yet.
//
// Endpoint: GET /api/portfolio/summary?portfolio_id=
// Response: 200 OK with SummaryResponse
// Error: 500 Internal Server Error if valuation fails
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolioService.GetPortfolioSummary(r.Context(), portfolioIDParam(r))
	if err != nil {
		respondServiceError(w, err, "failed to get portfolio summary")
		return
	}

	response.RespondSuccess(w, http.StatusOK, "", newSummaryResponse(summary))
}

// Positions handles GET requests for the open positions of a portfolio.
//
// Endpoint: GET /api/portfolio/positions?portfolio_id=
// Response: 200 OK with array of PositionResponse
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Positions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.portfolioService.GetPositions(r.Context(), portfolioIDParam(r))
	if err != nil {
		respondServiceError(w, err, "failed to retrieve positions")
		return
	}

	response.RespondSuccess(w, http.StatusOK, "", newPositionResponses(positions))
}

// Transactions handles GET requests for the most recent transactions, newest first.
//
// Endpoint: GET /api/portfolio/transactions?portfolio_id=&limit=
// Response: 200 OK with array of TransactionResponse
// Error: 400 Bad Request if limit is malformed
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	limit, err := request.ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameter", err.Error())
		return
	}

	txns, err := h.portfolioService.GetTransactions(r.Context(), portfolioIDParam(r), limit)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve transactions")
		return
	}

	response.RespondSuccess(w, http.StatusOK, "", newTransactionResponses(txns))
}

// Performance handles GET requests for the recorded performance history, oldest first.
//
// Endpoint: GET /api/portfolio/performance?portfolio_id=&days=
// Response: 200 OK with array of PerformancePointResponse
// Error: 400 Bad Request if days is malformed
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Performance(w http.ResponseWriter, r *http.Request) {
	days, err := request.ParseDays(r.URL.Query().Get("days"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameter", err.Error())
		return
	}

	history, err := h.portfolioService.GetPerformanceHistory(r.Context(), portfolioIDParam(r), days)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve performance history")
		return
	}

	response.RespondSuccess(w, http.StatusOK, "", newPerformanceResponses(history))
}

// Buy handles POST requests to buy shares.
//
// Endpoint: POST /api/portfolio/buy
// Request Body: TradeRequest (ticker, quantity, optional portfolio_id, price, reason)
// Response: 200 OK with TradeResponse
// Error: 400 Bad Request on validation failure or a rejected order
// Error: 500 Internal Server Error if the order fails
func (h *PortfolioHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.portfolioService.BuyAsset)
}

// Sell handles POST requests to sell shares.
//
// Endpoint: POST /api/portfolio/sell
// Request Body: TradeRequest
// Response: 200 OK with TradeResponse
// Error: 400 Bad Request on validation failure or a rejected order
// Error: 500 Internal Server Error if the order fails
func (h *PortfolioHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.portfolioService.SellAsset)
}

type executeFunc func(ctx context.Context, order model.TradeOrder) (model.TradeResult, error)

func (h *PortfolioHandler) trade(w http.ResponseWriter, r *http.Request, execute executeFunc) {
	req, err := parseJSON[request.TradeRequest](r, false)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateTrade(req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "user_manual"
	}

	result, err := execute(r.Context(), model.TradeOrder{
		PortfolioID: req.PortfolioID,
		Ticker:      req.Ticker,
		Quantity:    req.Quantity.Decimal,
		Price:       req.Price,
		Reason:      reason,
	})
	if err != nil {
		respondServiceError(w, err, "failed to execute order")
		return
	}

	response.RespondSuccess(w, http.StatusOK, result.Message, newTradeResponse(result))
}

// Hold handles POST requests recording a decision to do nothing.
//
// Endpoint: POST /api/portfolio/hold
// Request Body: HoldRequest (ticker, optional portfolio_id, reason)
// Response: 200 OK with a message
// Error: 400 Bad Request on validation failure
func (h *PortfolioHandler) Hold(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.HoldRequest](r, false)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateHold(req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	msg, err := h.portfolioService.Hold(r.Context(), req.PortfolioID, req.Ticker, req.Reason)
	if err != nil {
		respondServiceError(w, err, "failed to record hold")
		return
	}

	response.RespondSuccess(w, http.StatusOK, msg, nil)
}

// Snapshot handles POST requests appending the current valuation to the performance history.
//
// Endpoint: POST /api/portfolio/snapshot
// Request Body: optional SnapshotRequest
// Response: 201 Created with SummaryResponse
// Error: 500 Internal Server Error if recording fails
func (h *PortfolioHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SnapshotRequest](r, true)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	portfolioID := req.PortfolioID
	if portfolioID == "" {
		portfolioID = portfolioIDParam(r)
	}

	summary, err := h.portfolioService.RecordSnapshot(r.Context(), portfolioID)
	if err != nil {
		respondServiceError(w, err, "failed to record snapshot")
		return
	}

	response.RespondSuccess(w, http.StatusCreated, "Snapshot recorded", newSummaryResponse(summary))
}

// ExecuteStrategy handles POST requests running a trading strategy against a forecast.
// Without forecast_id the most recent forecast of the ticker is used.
//
// Endpoint: POST /api/portfolio/execute-strategy
// Request Body: StrategyRequest (ticker, optional portfolio_id, strategy, forecast_id)
// Response: 200 OK with StrategyResponse
// Error: 400 Bad Request on validation failure, an unknown strategy or a rejected trade
// Error: 404 Not Found if no forecast exists
// Error: 500 Internal Server Error if execution fails
func (h *PortfolioHandler) ExecuteStrategy(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.StrategyRequest](r, false)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateStrategy(req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	result, err := h.strategyService.ExecuteStrategy(r.Context(), model.StrategyRequest{
		PortfolioID: req.PortfolioID,
		Ticker:      req.Ticker,
		Strategy:    req.Strategy,
		ForecastID:  req.ForecastID,
	})
	if err != nil {
		respondServiceError(w, err, "failed to execute strategy")
		return
	}

	response.RespondSuccess(w, http.StatusOK, result.Message, newStrategyResponse(result))
}
