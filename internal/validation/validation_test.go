package validation

import (
	"testing"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/request"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()

	var verr *Error
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestValidateTrade(t *testing.T) {
	t.Run("valid without price", func(t *testing.T) {
		assert.NoError(t, ValidateTrade(request.TradeRequest{Ticker: "aapl", Quantity: nd("0.5")}))
	})

	t.Run("valid with zero price", func(t *testing.T) {
		assert.NoError(t, ValidateTrade(request.TradeRequest{Ticker: "BRK.B", Quantity: nd("1"), Price: nd("0")}))
	})

	t.Run("collects every field error", func(t *testing.T) {
		fields := fieldsOf(t, ValidateTrade(request.TradeRequest{Quantity: nd("-1"), Price: nd("-2")}))

		assert.Equal(t, "ticker is required", fields["ticker"])
		assert.Equal(t, "quantity must be positive", fields["quantity"])
		assert.Equal(t, "price cannot be negative", fields["price"])
	})

	t.Run("missing quantity", func(t *testing.T) {
		fields := fieldsOf(t, ValidateTrade(request.TradeRequest{Ticker: "AAPL"}))
		assert.Equal(t, "quantity is required", fields["quantity"])
	})

	t.Run("malformed ticker", func(t *testing.T) {
		fields := fieldsOf(t, ValidateTrade(request.TradeRequest{Ticker: "AA PL; DROP", Quantity: nd("1")}))
		assert.Contains(t, fields["ticker"], "invalid ticker")
	})
}

func TestValidateStrategy(t *testing.T) {
	assert.NoError(t, ValidateStrategy(request.StrategyRequest{Ticker: "AAPL", Strategy: "anything"}))

	fields := fieldsOf(t, ValidateStrategy(request.StrategyRequest{Ticker: "AAPL", ForecastID: "abc"}))
	assert.Contains(t, fields["forecast_id"], "invalid UUID format")
}

func TestValidateHold(t *testing.T) {
	assert.NoError(t, ValidateHold(request.HoldRequest{Ticker: "MSFT"}))
	assert.Error(t, ValidateHold(request.HoldRequest{}))
}

func TestValidateCreateForecast(t *testing.T) {
	valid := request.CreateForecastRequest{
		Ticker:  "AAPL",
		Horizon: "2d",
		Points: []request.ForecastPointRequest{
			{Timestamp: "2025-01-06", PredictedClose: nd("150")},
			{Timestamp: "2025-01-07T21:00:00Z", PredictedClose: nd("152.5")},
		},
	}
	assert.NoError(t, ValidateCreateForecast(valid))

	t.Run("requires points", func(t *testing.T) {
		req := valid
		req.Points = nil
		fields := fieldsOf(t, ValidateCreateForecast(req))
		assert.Equal(t, "at least one point is required", fields["points"])
	})

	t.Run("reports bad points by index", func(t *testing.T) {
		req := valid
		req.Horizon = ""
		req.Points = []request.ForecastPointRequest{
			{Timestamp: "2025-01-06", PredictedClose: nd("150")},
			{Timestamp: "tomorrow", PredictedClose: nd("0")},
		}
		fields := fieldsOf(t, ValidateCreateForecast(req))

		assert.Len(t, fields, 3)
		assert.Contains(t, fields, "horizon")
		assert.Contains(t, fields, "points[1].timestamp")
		assert.Contains(t, fields, "points[1].predicted_close")
	})
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2025-01-07T23:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 7, 21, 0, 0, 0, time.UTC), got)

	got, err = ParseTimestamp("2025-01-07")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseTimestamp("07/01/2025")
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestError(t *testing.T) {
	err := &Error{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "a: first; b: second", err.Error())
}
