package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/metrics"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/yahoo"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// PriceOracle resolves the latest known price of a ticker.
type PriceOracle interface {
	CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// QuoteSource is the market data client behind the oracle.
type QuoteSource interface {
	LatestQuote(ctx context.Context, symbol string) (yahoo.Quote, error)
}

// YahooPriceOracle is the PriceOracle backed by Yahoo Finance.
//
// Each lookup is bounded by timeout. Concurrent lookups of one ticker share a
// single request, and a circuit breaker fails fast while Yahoo keeps failing.
type YahooPriceOracle struct {
	source  QuoteSource
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	group   singleflight.Group
	log     zerolog.Logger
}

// NewYahooPriceOracle creates a YahooPriceOracle.
func NewYahooPriceOracle(source QuoteSource, timeout time.Duration, log zerolog.Logger) *YahooPriceOracle {
	return &YahooPriceOracle{
		source:  source,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "yahoo-price-oracle",
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
		}),
		log: log.With().Str("component", "price_oracle").Logger(),
	}
}

// CurrentPrice returns the latest price of ticker. Every failure, timeouts
// included, is reported as ErrPriceUnavailable.
func (o *YahooPriceOracle) CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	start := time.Now()

	// The flight is shared by every caller waiting on ticker, so it must not
	// end when the caller that started it goes away.
	v, err, _ := o.group.Do(ticker, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
		defer cancel()

		return o.breaker.Execute(func() (any, error) {
			return o.source.LatestQuote(ctx, ticker)
		})
	})
	metrics.OracleLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		result := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "open"
		}
		metrics.OracleRequests.WithLabelValues(result).Inc()
		o.log.Warn().Err(err).Str("ticker", ticker).Msg("price lookup failed")
		return decimal.Zero, apperrors.Reject(apperrors.ErrPriceUnavailable, "Could not fetch current price for %s", ticker)
	}

	metrics.OracleRequests.WithLabelValues("ok").Inc()
	quote, ok := v.(yahoo.Quote)
	if !ok || quote.Price <= 0 {
		return decimal.Zero, apperrors.Reject(apperrors.ErrPriceUnavailable, "Could not fetch current price for %s", ticker)
	}

	return decimal.NewFromFloat(quote.Price), nil
}
