package validation

import (
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/request"
)

// ValidateTrade validates a buy or sell request.
//
// Required fields:
//   - ticker: exchange symbol
//   - quantity: must be positive
//
// Optional fields:
//   - price: must not be negative; omitted means the current market price
func ValidateTrade(req request.TradeRequest) error {
	errs := make(map[string]string)

	validateTicker(errs, req.Ticker)

	if !req.Quantity.Valid {
		errs["quantity"] = "quantity is required"
	} else if !req.Quantity.Decimal.IsPositive() {
		errs["quantity"] = "quantity must be positive"
	}

	if req.Price.Valid && req.Price.Decimal.IsNegative() {
		errs["price"] = "price cannot be negative"
	}

	if len(req.Reason) > 200 {
		errs["reason"] = "reason must be 200 characters or less"
	}

	return result(errs)
}

// ValidateHold validates a hold request.
func ValidateHold(req request.HoldRequest) error {
	errs := make(map[string]string)

	validateTicker(errs, req.Ticker)

	if len(req.Reason) > 200 {
		errs["reason"] = "reason must be 200 characters or less"
	}

	return result(errs)
}

// ValidateStrategy validates a strategy execution request. The strategy name
// itself is checked by the strategy engine.
func ValidateStrategy(req request.StrategyRequest) error {
	errs := make(map[string]string)

	validateTicker(errs, req.Ticker)

	if req.ForecastID != "" {
		if err := ValidateUUID(req.ForecastID); err != nil {
			errs["forecast_id"] = err.Error()
		}
	}

	return result(errs)
}
