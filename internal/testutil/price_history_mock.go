package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/yahoo"
)

// MockPriceHistory is an in-memory service.PriceHistory for testing.
// Symbols without configured closes return an empty history.
type MockPriceHistory struct {
	mu     sync.Mutex
	closes map[string][]yahoo.Close
	err    error
	calls  int
}

// NewMockPriceHistory creates a mock history with no closes.
func NewMockPriceHistory() *MockPriceHistory {
	return &MockPriceHistory{closes: make(map[string][]yahoo.Close)}
}

// WithClose adds the close of symbol on day.
func (m *MockPriceHistory) WithClose(symbol string, day time.Time, price float64) *MockPriceHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	symbol = strings.ToUpper(symbol)
	m.closes[symbol] = append(m.closes[symbol], yahoo.Close{Date: day, Price: price})
	return m
}

// Failing makes every lookup fail.
func (m *MockPriceHistory) Failing() *MockPriceHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = errors.New("yahoo returned status 503")
	return m
}

// DailyCloses returns the configured closes of symbol between start and end.
func (m *MockPriceHistory) DailyCloses(_ context.Context, symbol string, start, end time.Time) ([]yahoo.Close, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	var out []yahoo.Close
	for _, c := range m.closes[strings.ToUpper(symbol)] {
		if !c.Date.Before(start) && c.Date.Before(end) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Calls returns how many lookups were made.
func (m *MockPriceHistory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
