package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// MockPriceOracle is an in-memory service.PriceOracle for testing.
// Tickers without a configured price fail with ErrPriceUnavailable.
// It is safe for concurrent use.
type MockPriceOracle struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	calls  map[string]int
}

// NewMockPriceOracle creates a mock oracle with no prices.
func NewMockPriceOracle() *MockPriceOracle {
	return &MockPriceOracle{
		prices: make(map[string]decimal.Decimal),
		calls:  make(map[string]int),
	}
}

// WithPrice sets the price returned for ticker.
func (m *MockPriceOracle) WithPrice(ticker string, price float64) *MockPriceOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[strings.ToUpper(ticker)] = decimal.NewFromFloat(price)
	return m
}

// WithoutPrice makes lookups of ticker fail.
func (m *MockPriceOracle) WithoutPrice(ticker string) *MockPriceOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.prices, strings.ToUpper(ticker))
	return m
}

// CurrentPrice returns the configured price of ticker.
func (m *MockPriceOracle) CurrentPrice(_ context.Context, ticker string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticker = strings.ToUpper(ticker)
	m.calls[ticker]++
	price, ok := m.prices[ticker]
	if !ok {
		return decimal.Zero, apperrors.Reject(apperrors.ErrPriceUnavailable, "Could not fetch current price for %s", ticker)
	}
	return price, nil
}

// Calls returns how many times ticker was looked up.
func (m *MockPriceOracle) Calls(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[strings.ToUpper(ticker)]
}
