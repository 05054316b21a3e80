package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastHandler_CreateForecast(t *testing.T) {
	t.Run("stores the forecast", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewForecastHandler(testutil.NewTestForecastService(t, db))

		body := map[string]any{
			"ticker":     "nvda",
			"horizon":    "3d",
			"model_name": "chronos",
			"points": []map[string]any{
				{"timestamp": "2025-01-08", "predicted_close": 142.5},
				{"timestamp": "2025-01-07T00:00:00Z", "predicted_close": "141.25"},
			},
		}
		w := httptest.NewRecorder()
		handler.CreateForecast(w, testutil.NewJSONRequest(http.MethodPost, "/api/forecast", body))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		forecast := decodeData[ForecastResponse](t, decodeEnvelope(t, w))
		assert.NotEmpty(t, forecast.ID)
		assert.Equal(t, "NVDA", forecast.Ticker)
		assert.Equal(t, "3d", forecast.Horizon)
		assert.Equal(t, "chronos", forecast.ModelName)
		require.Len(t, forecast.Points, 2)
		assert.Equal(t, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), forecast.Points[0].Timestamp)
		assert.InDelta(t, 141.25, forecast.Points[0].PredictedClose, 1e-9)
		testutil.AssertRowCount(t, db, "forecast_point", 2)
	})

	t.Run("invalid points are reported by index", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewForecastHandler(testutil.NewTestForecastService(t, db))

		body := map[string]any{
			"ticker":  "NVDA",
			"horizon": "3d",
			"points": []map[string]any{
				{"timestamp": "2025-01-07", "predicted_close": 141},
				{"timestamp": "next tuesday", "predicted_close": 0},
			},
		}
		w := httptest.NewRecorder()
		handler.CreateForecast(w, testutil.NewJSONRequest(http.MethodPost, "/api/forecast", body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		details := decodeDetails(t, decodeEnvelope(t, w))
		assert.Contains(t, details, "points[1].timestamp")
		assert.Contains(t, details, "points[1].predicted_close")
		assert.NotContains(t, details, "points[0].timestamp")
		testutil.AssertRowCount(t, db, "forecast", 0)
	})

	t.Run("missing points", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewForecastHandler(testutil.NewTestForecastService(t, db))

		w := httptest.NewRecorder()
		handler.CreateForecast(w, testutil.NewJSONRequest(http.MethodPost, "/api/forecast",
			map[string]any{"ticker": "NVDA", "horizon": "3d"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "at least one point is required", decodeDetails(t, decodeEnvelope(t, w))["points"])
	})
}

func TestForecastHandler_Reads(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewForecastHandler(testutil.NewTestForecastService(t, db))

	older := testutil.NewForecast("AAPL").WithCreatedAt(time.Now().UTC().Add(-time.Hour)).Build(t, db)
	latest := testutil.NewForecast("AAPL").WithCloses(150, 155, 160).Build(t, db)

	t.Run("latest by ticker", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.LatestForecast(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/forecast/latest",
			map[string]string{"ticker": "aapl"}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		forecast := decodeData[ForecastResponse](t, decodeEnvelope(t, w))
		assert.Equal(t, latest.ID, forecast.ID)
		assert.Len(t, forecast.Points, 3)
	})

	t.Run("latest requires a ticker", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.LatestForecast(w, httptest.NewRequest(http.MethodGet, "/api/forecast/latest", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("latest for an unknown ticker", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.LatestForecast(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/forecast/latest",
			map[string]string{"ticker": "TSLA"}))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "No forecast found for TSLA", decodeEnvelope(t, w).Message)
	})

	t.Run("by id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetForecast(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/forecast/"+older.ID,
			map[string]string{"forecastId": older.ID}))

		require.Equal(t, http.StatusOK, w.Code)
		forecast := decodeData[ForecastResponse](t, decodeEnvelope(t, w))
		assert.Equal(t, older.ID, forecast.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		id := testutil.MakeID()
		w := httptest.NewRecorder()
		handler.GetForecast(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/forecast/"+id,
			map[string]string{"forecastId": id}))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Forecast "+id+" not found", decodeEnvelope(t, w).Message)
	})
}

func TestForecastHandler_EvaluateForecast(t *testing.T) {
	closeOn := func(d int) time.Time { return time.Date(2025, 1, d, 14, 30, 0, 0, time.UTC) }

	t.Run("scores the latest forecast", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		history := testutil.NewMockPriceHistory().WithClose("AAPL", closeOn(6), 102)
		handler := NewForecastHandler(testutil.NewTestForecastServiceWithHistory(t, db, history))
		forecast := testutil.NewForecast("AAPL").WithCloses(100, 104).Build(t, db)

		w := httptest.NewRecorder()
		handler.EvaluateForecast(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/forecast/evaluate",
			map[string]string{"ticker": "aapl"}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		eval := decodeData[ForecastEvaluationResponse](t, decodeEnvelope(t, w))
		assert.Equal(t, forecast.ID, eval.ForecastID)
		require.Len(t, eval.Points, 2)
		assert.True(t, eval.Points[0].HasActual)
		assert.InDelta(t, 2.0, *eval.Points[0].Error, 1e-9)
		assert.False(t, eval.Points[1].HasActual)
		assert.Nil(t, eval.Points[1].Actual)

		metrics := eval.ErrorMetrics
		assert.Equal(t, 1, metrics.EvaluatedPoints)
		assert.Equal(t, 2, metrics.TotalForecastPoints)
		require.NotNil(t, metrics.MAE)
		assert.InDelta(t, 2.0, *metrics.MAE, 1e-9)
		assert.InDelta(t, 2.0, *metrics.RMSE, 1e-9)
		assert.InDelta(t, 100*2.0/102, *metrics.MAPE, 1e-9)
	})

	t.Run("unscored metrics are null", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewForecastHandler(testutil.NewTestForecastService(t, db))
		forecast := testutil.NewForecast("AAPL").Build(t, db)

		w := httptest.NewRecorder()
		handler.EvaluateForecast(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/forecast/evaluate",
			map[string]string{"forecast_id": forecast.ID}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decodeData[map[string]any](t, decodeEnvelope(t, w))
		metrics, ok := data["error_metrics"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, metrics, "mae")
		assert.Nil(t, metrics["mae"])
		assert.EqualValues(t, 0, metrics["evaluated_points"])
	})

	t.Run("requires a ticker or forecast id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewForecastHandler(testutil.NewTestForecastService(t, db))

		w := httptest.NewRecorder()
		handler.EvaluateForecast(w, httptest.NewRequest(http.MethodGet, "/api/forecast/evaluate", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ticker is required", decodeEnvelope(t, w).Message)

		w = httptest.NewRecorder()
		handler.EvaluateForecast(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/forecast/evaluate",
			map[string]string{"forecast_id": "not-a-uuid"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewForecastHandler(testutil.NewTestForecastService(t, db))

		w := httptest.NewRecorder()
		handler.EvaluateForecast(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/forecast/evaluate",
			map[string]string{"ticker": "TSLA"}))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("actual closes unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewForecastHandler(testutil.NewTestForecastServiceWithHistory(t, db, testutil.NewMockPriceHistory().Failing()))
		testutil.NewForecast("AAPL").Build(t, db)

		w := httptest.NewRecorder()
		handler.EvaluateForecast(w, testutil.NewRequestWithQueryParams(http.MethodGet, "/api/forecast/evaluate",
			map[string]string{"ticker": "AAPL"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Could not fetch actual price data for AAPL", decodeEnvelope(t, w).Message)
	})
}
