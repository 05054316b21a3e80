package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/apperrors"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/service"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/testutil"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/yahoo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuoteSource counts lookups and answers with fn.
type fakeQuoteSource struct {
	calls atomic.Int32
	fn    func(ctx context.Context, symbol string) (yahoo.Quote, error)
}

func (f *fakeQuoteSource) LatestQuote(ctx context.Context, symbol string) (yahoo.Quote, error) {
	f.calls.Add(1)
	return f.fn(ctx, symbol)
}

func quoteOf(price float64) func(context.Context, string) (yahoo.Quote, error) {
	return func(_ context.Context, symbol string) (yahoo.Quote, error) {
		return yahoo.Quote{Symbol: symbol, Price: price, Date: time.Now()}, nil
	}
}

// TestYahooPriceOracle_CurrentPrice tests the oracle in front of Yahoo.
//
// WHY: Every oracle failure must surface as ErrPriceUnavailable so trades are
// rejected cleanly, and a failing upstream must not be hammered.
func TestYahooPriceOracle_CurrentPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the quoted price", func(t *testing.T) {
		var seen string
		source := &fakeQuoteSource{fn: func(_ context.Context, symbol string) (yahoo.Quote, error) {
			seen = symbol
			return yahoo.Quote{Symbol: symbol, Price: 187.44}, nil
		}}
		oracle := service.NewYahooPriceOracle(source, time.Second, testutil.TestLogger())

		price, err := oracle.CurrentPrice(ctx, " aapl ")
		require.NoError(t, err)
		assert.True(t, testutil.Dec("187.44").Equal(price))
		assert.Equal(t, "AAPL", seen)
	})

	t.Run("source errors become price unavailable", func(t *testing.T) {
		source := &fakeQuoteSource{fn: func(context.Context, string) (yahoo.Quote, error) {
			return yahoo.Quote{}, yahoo.ErrNoPrice
		}}
		oracle := service.NewYahooPriceOracle(source, time.Second, testutil.TestLogger())

		_, err := oracle.CurrentPrice(ctx, "AAPL")
		require.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
		assert.Equal(t, "Could not fetch current price for AAPL", err.Error())
	})

	t.Run("a non-positive price is unavailable", func(t *testing.T) {
		oracle := service.NewYahooPriceOracle(&fakeQuoteSource{fn: quoteOf(0)}, time.Second, testutil.TestLogger())

		_, err := oracle.CurrentPrice(ctx, "AAPL")
		assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
	})

	t.Run("slow lookups time out", func(t *testing.T) {
		source := &fakeQuoteSource{fn: func(ctx context.Context, _ string) (yahoo.Quote, error) {
			<-ctx.Done()
			return yahoo.Quote{}, ctx.Err()
		}}
		oracle := service.NewYahooPriceOracle(source, 20*time.Millisecond, testutil.TestLogger())

		start := time.Now()
		_, err := oracle.CurrentPrice(ctx, "AAPL")
		assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("breaker opens after repeated failures", func(t *testing.T) {
		source := &fakeQuoteSource{fn: func(context.Context, string) (yahoo.Quote, error) {
			return yahoo.Quote{}, errors.New("503 service unavailable")
		}}
		oracle := service.NewYahooPriceOracle(source, time.Second, testutil.TestLogger())

		for range 8 {
			_, err := oracle.CurrentPrice(ctx, "AAPL")
			assert.ErrorIs(t, err, apperrors.ErrPriceUnavailable)
		}
		assert.Equal(t, int32(5), source.calls.Load(), "lookups after the trip fail fast")
	})

	t.Run("concurrent lookups of one ticker share a request", func(t *testing.T) {
		release := make(chan struct{})
		source := &fakeQuoteSource{fn: func(_ context.Context, symbol string) (yahoo.Quote, error) {
			<-release
			return yahoo.Quote{Symbol: symbol, Price: 99.5}, nil
		}}
		oracle := service.NewYahooPriceOracle(source, 5*time.Second, testutil.TestLogger())

		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				price, err := oracle.CurrentPrice(ctx, "MSFT")
				assert.NoError(t, err)
				assert.True(t, testutil.Dec("99.5").Equal(price))
			}()
		}

		require.Eventually(t, func() bool { return source.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), source.calls.Load())
	})

	t.Run("a cancelled caller does not fail the callers sharing its lookup", func(t *testing.T) {
		release := make(chan struct{})
		source := &fakeQuoteSource{fn: func(ctx context.Context, symbol string) (yahoo.Quote, error) {
			select {
			case <-release:
				return yahoo.Quote{Symbol: symbol, Price: 42.5}, nil
			case <-ctx.Done():
				return yahoo.Quote{}, ctx.Err()
			}
		}}
		oracle := service.NewYahooPriceOracle(source, 5*time.Second, testutil.TestLogger())

		firstCtx, cancelFirst := context.WithCancel(ctx)
		firstDone := make(chan struct{})
		go func() {
			defer close(firstDone)
			_, _ = oracle.CurrentPrice(firstCtx, "NVDA")
		}()
		require.Eventually(t, func() bool { return source.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

		type result struct {
			price string
			err   error
		}
		second := make(chan result, 1)
		go func() {
			price, err := oracle.CurrentPrice(ctx, "NVDA")
			second <- result{price.String(), err}
		}()
		time.Sleep(50 * time.Millisecond)

		// WHY: the request started by the first caller is shared; its
		// disconnect must not turn into a price failure for everyone else.
		cancelFirst()
		time.Sleep(50 * time.Millisecond)
		close(release)

		got := <-second
		require.NoError(t, got.err)
		assert.Equal(t, "42.5", got.price)
		<-firstDone
		assert.Equal(t, int32(1), source.calls.Load())
	})
}
