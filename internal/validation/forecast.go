package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api/request"
)

// MaxForecastPoints bounds the size of one forecast.
const MaxForecastPoints = 1000

// ValidateCreateForecast validates a forecast ingestion request.
//
// Required fields:
//   - ticker: exchange symbol
//   - horizon: free text such as "5d", at most 32 characters
//   - points: 1 to MaxForecastPoints entries, each with a parseable timestamp
//     and a positive predicted_close
func ValidateCreateForecast(req request.CreateForecastRequest) error {
	errs := make(map[string]string)

	validateTicker(errs, req.Ticker)

	if strings.TrimSpace(req.Horizon) == "" {
		errs["horizon"] = "horizon is required"
	} else if len(req.Horizon) > 32 {
		errs["horizon"] = "horizon must be 32 characters or less"
	}

	if len(req.ModelName) > 32 {
		errs["model_name"] = "model_name must be 32 characters or less"
	}

	switch {
	case len(req.Points) == 0:
		errs["points"] = "at least one point is required"
	case len(req.Points) > MaxForecastPoints:
		errs["points"] = fmt.Sprintf("at most %d points are allowed", MaxForecastPoints)
	}

	for i, p := range req.Points {
		if _, err := ParseTimestamp(p.Timestamp); err != nil {
			errs[fmt.Sprintf("points[%d].timestamp", i)] = err.Error()
		}
		if !p.PredictedClose.Valid || !p.PredictedClose.Decimal.IsPositive() {
			errs[fmt.Sprintf("points[%d].predicted_close", i)] = "predicted_close must be positive"
		}
	}

	return result(errs)
}
