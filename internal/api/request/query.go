package request

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/model"
)

const (
	// DefaultHistoryDays is the performance history length returned when days is omitted.
	DefaultHistoryDays = 30
	// DefaultTransactionLimit is the number of transactions returned when limit is omitted.
	DefaultTransactionLimit = 50
	maxTransactionLimit     = 1000
)

// ParseDays parses the days query parameter of the performance history.
// Empty means DefaultHistoryDays; values above the retention limit are capped.
func ParseDays(param string) (int, error) {
	days, err := parsePositiveInt("days", param, DefaultHistoryDays)
	if err != nil {
		return 0, err
	}
	return min(days, model.MaxPerformanceHistory), nil
}

// ParseLimit parses the limit query parameter of the transaction list.
func ParseLimit(param string) (int, error) {
	limit, err := parsePositiveInt("limit", param, DefaultTransactionLimit)
	if err != nil {
		return 0, err
	}
	return min(limit, maxTransactionLimit), nil
}

func parsePositiveInt(name, param string, defaultValue int) (int, error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, param)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return n, nil
}
