package apperrors

import (
	"errors"
	"fmt"
)

// Domain entity errors represent missing or invalid entities in the system.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrForecastNotFound indicates that no forecast exists for the given ticker or ID.
	ErrForecastNotFound = errors.New("forecast not found")

	// ErrNoPosition indicates a sell or strategy on a ticker with no open quantity.
	ErrNoPosition = errors.New("no position found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrValidation wraps request-level validation failures (missing ticker,
	// non-positive quantity, unknown strategy, ...).
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientCash indicates that a buy costs more than the available cash.
	// No partial fill is attempted.
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrInsufficientShares indicates that a sell asks for more shares than held.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrPriceUnavailable indicates the price oracle could not resolve a price.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrInsufficientForecast indicates a forecast with fewer than two points.
	ErrInsufficientForecast = errors.New("insufficient forecast data")

	// ErrUnknownStrategy indicates a strategy name outside momentum, conservative, aggressive.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToGetPortfolioSummary = errors.New("failed to get portfolio summary")
	ErrFailedToRetrievePositions   = errors.New("failed to retrieve positions")
	ErrFailedToRetrieveHistory     = errors.New("failed to retrieve performance history")
	ErrFailedToRecordSnapshot      = errors.New("failed to record performance snapshot")
	ErrFailedToExecuteOrder        = errors.New("failed to execute order")
)

// IsBusinessRule reports whether err is a rejection the caller can act on,
// as opposed to a storage or internal failure.
func IsBusinessRule(err error) bool {
	for _, target := range []error{
		ErrValidation,
		ErrInsufficientCash,
		ErrInsufficientShares,
		ErrPriceUnavailable,
		ErrInsufficientForecast,
		ErrUnknownStrategy,
		ErrNoPosition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Rejection is a business-rule error carrying the message shown to API clients.
// It unwraps to the sentinel that classifies it.
type Rejection struct {
	Err     error
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() error { return r.Err }

// Reject builds a Rejection classified by sentinel with a formatted message.
func Reject(sentinel error, format string, args ...any) error {
	return &Rejection{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}
