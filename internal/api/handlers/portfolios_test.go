package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPortfolioHandler_Buy tests the POST /api/portfolio/buy endpoint.
//
// WHY: Trading bots branch on success and message alone, so rejections must
// come back as 400 with the human-readable reason, never as a 500.
func TestPortfolioHandler_Buy(t *testing.T) {
	t.Run("buys at the given price", func(t *testing.T) {
		handler, _ := newTestPortfolioHandler(t, testutil.NewMockPriceOracle())

		req := testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/buy",
			`{"ticker":"aapl","quantity":10,"price":"150"}`)
		w := httptest.NewRecorder()
		handler.Buy(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decodeEnvelope(t, w)
		assert.True(t, env.Success)
		assert.Equal(t, "Bought 10 AAPL at $150.00", env.Message)

		trade := decodeData[TradeResponse](t, env)
		assert.Equal(t, "buy", trade.Action)
		assert.Equal(t, "AAPL", trade.Ticker)
		assert.InDelta(t, 98500, trade.RemainingCash, 1e-9)
		assert.Nil(t, trade.RealizedGainLoss)
		require.NotNil(t, trade.Position)
		assert.InDelta(t, 10, trade.Position.Quantity, 1e-9)
		assert.InDelta(t, 150, trade.Position.AveragePrice, 1e-9)
	})

	t.Run("uses the market price when none is given", func(t *testing.T) {
		handler, _ := newTestPortfolioHandler(t, testutil.NewMockPriceOracle().WithPrice("MSFT", 400))

		w := httptest.NewRecorder()
		handler.Buy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/buy",
			map[string]any{"ticker": "MSFT", "quantity": 2}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		trade := decodeData[TradeResponse](t, decodeEnvelope(t, w))
		assert.InDelta(t, 400, trade.Price, 1e-9)
		assert.InDelta(t, 99200, trade.RemainingCash, 1e-9)
	})

	t.Run("rejects an unaffordable order", func(t *testing.T) {
		handler, db := newTestPortfolioHandler(t, testutil.NewMockPriceOracle())

		w := httptest.NewRecorder()
		handler.Buy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/buy",
			map[string]any{"ticker": "AAPL", "quantity": 1000, "price": 150}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Success)
		assert.Equal(t, "Insufficient cash. Required: $150000.00, Available: $100000.00", env.Message)
		testutil.AssertRowCount(t, db, `"transaction"`, 0)
	})

	t.Run("price unavailable", func(t *testing.T) {
		handler, _ := newTestPortfolioHandler(t, testutil.NewMockPriceOracle())

		w := httptest.NewRecorder()
		handler.Buy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/buy",
			map[string]any{"ticker": "AAPL", "quantity": 1}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Could not fetch current price for AAPL", decodeEnvelope(t, w).Message)
	})

	t.Run("validation errors list the fields", func(t *testing.T) {
		handler, _ := newTestPortfolioHandler(t, testutil.NewMockPriceOracle())

		w := httptest.NewRecorder()
		handler.Buy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/buy",
			map[string]any{"ticker": "", "quantity": -1}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "validation failed", env.Message)
		details := decodeDetails(t, env)
		assert.Equal(t, "ticker is required", details["ticker"])
		assert.Equal(t, "quantity must be positive", details["quantity"])
	})

	t.Run("malformed body", func(t *testing.T) {
		handler, _ := newTestPortfolioHandler(t, testutil.NewMockPriceOracle())

		w := httptest.NewRecorder()
		handler.Buy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/buy", `{"ticker":`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid request body", decodeEnvelope(t, w).Message)
	})
}

func TestPortfolioHandler_Sell(t *testing.T) {
	t.Run("round trip realizes the gain", func(t *testing.T) {
		handler, _ := newTestPortfolioHandler(t, testutil.NewMockPriceOracle())

		w := httptest.NewRecorder()
		handler.Buy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/buy",
			map[string]any{"ticker": "AAPL", "quantity": 5, "price": 150}))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = httptest.NewRecorder()
		handler.Sell(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/sell",
			map[string]any{"ticker": "AAPL", "quantity": 5, "price": 160}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		trade := decodeData[TradeResponse](t, decodeEnvelope(t, w))
		assert.Equal(t, "sell", trade.Action)
		require.NotNil(t, trade.RealizedGainLoss)
		assert.InDelta(t, 50, *trade.RealizedGainLoss, 1e-9)
		assert.InDelta(t, 100050, trade.RemainingCash, 1e-9)
	})

	t.Run("no position", func(t *testing.T) {
		handler, _ := newTestPortfolioHandler(t, testutil.NewMockPriceOracle())

		w := httptest.NewRecorder()
		handler.Sell(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/sell",
			map[string]any{"ticker": "AAPL", "quantity": 1, "price": 100}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No position found for AAPL", decodeEnvelope(t, w).Message)
	})
}

func TestPortfolioHandler_Hold(t *testing.T) {
	handler, db := newTestPortfolioHandler(t, testutil.NewMockPriceOracle())

	w := httptest.NewRecorder()
	handler.Hold(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/hold",
		map[string]any{"ticker": "tsla"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Holding position for TSLA", decodeEnvelope(t, w).Message)
	testutil.AssertRowCount(t, db, `"transaction"`, 0)
}

func TestPortfolioHandler_Reads(t *testing.T) {
	oracle := testutil.NewMockPriceOracle().WithPrice("AAPL", 160)
	handler, db := newTestPortfolioHandler(t, oracle)

	w := httptest.NewRecorder()
	handler.Buy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/buy",
		map[string]any{"ticker": "AAPL", "quantity": 10, "price": 150}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Run("summary", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Summary(w, httptest.NewRequest(http.MethodGet, "/api/portfolio/summary", nil))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		summary := decodeData[SummaryResponse](t, decodeEnvelope(t, w))
		assert.Equal(t, "default", summary.PortfolioID)
		assert.InDelta(t, 98500, summary.CurrentCash, 1e-9)
		assert.InDelta(t, 1600, summary.PositionsValue, 1e-9)
		assert.InDelta(t, 100100, summary.TotalValue, 1e-9)
		assert.InDelta(t, 100, summary.TotalUnrealizedGainLoss, 1e-9)
		assert.Equal(t, 1, summary.NumPositions)
		testutil.AssertRowCount(t, db, "performance_snapshot", 0)
	})

	t.Run("positions", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Positions(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/positions",
			map[string]string{"portfolio_id": "default"}))

		require.Equal(t, http.StatusOK, w.Code)
		positions := decodeData[[]PositionResponse](t, decodeEnvelope(t, w))
		require.Len(t, positions, 1)
		assert.Equal(t, "AAPL", positions[0].Ticker)
		assert.InDelta(t, 160, positions[0].CurrentPrice, 1e-9)
		assert.InDelta(t, 100, positions[0].PnL, 1e-9)
	})

	t.Run("transactions", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Transactions(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/transactions",
			map[string]string{"limit": "10"}))

		require.Equal(t, http.StatusOK, w.Code)
		txns := decodeData[[]TransactionResponse](t, decodeEnvelope(t, w))
		require.Len(t, txns, 1)
		assert.Equal(t, "buy", txns[0].Action)
		assert.Equal(t, "user_manual", txns[0].Reason)
	})

	t.Run("transactions with a bad limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Transactions(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/transactions",
			map[string]string{"limit": "ten"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("snapshot then performance", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Snapshot(w, httptest.NewRequest(http.MethodPost, "/api/portfolio/snapshot", nil))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "Snapshot recorded", decodeEnvelope(t, w).Message)

		w = httptest.NewRecorder()
		handler.Performance(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/portfolio/performance",
			map[string]string{"days": "7"}))

		require.Equal(t, http.StatusOK, w.Code)
		history := decodeData[[]map[string]any](t, decodeEnvelope(t, w))
		require.Len(t, history, 1)

		// WHY: the chart reads {date, value, returns}; storage columns must not leak.
		assert.Contains(t, history[0], "date")
		assert.InDelta(t, 100100, history[0]["value"], 1e-9)
		assert.InDelta(t, 0.1, history[0]["returns"], 1e-9)
		assert.NotContains(t, history[0], "total_value")
		assert.NotContains(t, history[0], "portfolio_id")
	})
}

func TestPortfolioHandler_ExecuteStrategy(t *testing.T) {
	t.Run("momentum buy", func(t *testing.T) {
		handler, db := newTestPortfolioHandler(t, testutil.NewMockPriceOracle().WithPrice("AAPL", 150))
		forecast := testutil.NewForecast("AAPL").WithCloses(150, 160).Build(t, db)

		w := httptest.NewRecorder()
		handler.ExecuteStrategy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/execute-strategy",
			map[string]any{"ticker": "AAPL", "strategy": "momentum"}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decodeData[StrategyResponse](t, decodeEnvelope(t, w))
		assert.Equal(t, "momentum", result.Strategy)
		assert.Equal(t, "buy", result.Action)
		assert.Equal(t, forecast.ID, result.Analysis.ForecastID)
		require.NotNil(t, result.Trade)
		assert.Equal(t, "AAPL", result.Trade.Ticker)
	})

	t.Run("no forecast is not found", func(t *testing.T) {
		handler, _ := newTestPortfolioHandler(t, testutil.NewMockPriceOracle().WithPrice("AAPL", 150))

		w := httptest.NewRecorder()
		handler.ExecuteStrategy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/execute-strategy",
			map[string]any{"ticker": "AAPL"}))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "No forecast found for AAPL", decodeEnvelope(t, w).Message)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		handler, db := newTestPortfolioHandler(t, testutil.NewMockPriceOracle().WithPrice("AAPL", 150))
		testutil.NewForecast("AAPL").WithCloses(150, 160).Build(t, db)

		w := httptest.NewRecorder()
		handler.ExecuteStrategy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/execute-strategy",
			map[string]any{"ticker": "AAPL", "strategy": "yolo"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Unknown strategy: yolo", decodeEnvelope(t, w).Message)
	})

	t.Run("forecast_id must be a uuid", func(t *testing.T) {
		handler, _ := newTestPortfolioHandler(t, testutil.NewMockPriceOracle())

		w := httptest.NewRecorder()
		handler.ExecuteStrategy(w, testutil.NewJSONRequest(http.MethodPost, "/api/portfolio/execute-strategy",
			map[string]any{"ticker": "AAPL", "forecast_id": "latest"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeDetails(t, decodeEnvelope(t, w)), "forecast_id")
	})
}
