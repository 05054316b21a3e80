package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID      = fmt.Errorf("invalid UUID format")
	ErrInvalidTimestamp = fmt.Errorf("invalid timestamp")
)

// tickerPattern accepts exchange symbols such as AAPL, BRK.B, RDS-A and ^GSPC.
var tickerPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=]{0,15}$`)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// validateTicker records a ticker error in errs. Tickers are matched case-insensitively.
func validateTicker(errs map[string]string, ticker string) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	switch {
	case ticker == "":
		errs["ticker"] = "ticker is required"
	case !tickerPattern.MatchString(ticker):
		errs["ticker"] = fmt.Sprintf("invalid ticker: %s", ticker)
	}
}

// ParseTimestamp parses an RFC3339 timestamp or a YYYY-MM-DD date as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
