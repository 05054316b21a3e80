package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoPrice is returned when Yahoo answers without any usable price for the symbol.
var ErrNoPrice = errors.New("no price returned")

// FinanceClient fetches quotes from the Yahoo Finance chart API.
type FinanceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFinanceClient creates a client for baseURL. Every request is bounded by timeout.
func NewFinanceClient(baseURL string, timeout time.Duration) *FinanceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinanceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LatestQuote returns the most recent price of symbol.
//
// The regular market price from the chart metadata is preferred; when Yahoo
// omits it, the last non-null daily close of the past five days is used.
func (c *FinanceClient) LatestQuote(ctx context.Context, symbol string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", c.baseURL, url.PathEscape(symbol))

	response, err := c.queryYahoo(ctx, endpoint)
	if err != nil {
		return Quote{}, err
	}
	if len(response.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("no results returned for symbol %s: %w", symbol, ErrNoPrice)
	}

	result := response.Chart.Result[0]
	quote := Quote{
		Symbol:   result.Meta.Symbol,
		Currency: result.Meta.Currency,
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}

	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] == nil || *closes[i] <= 0 || i >= len(result.Timestamp) {
				continue
			}
			quote.Price = *closes[i]
			quote.Date = time.Unix(result.Timestamp[i], 0).UTC()
			break
		}
	}

	if result.Meta.RegularMarketPrice > 0 {
		quote.Price = result.Meta.RegularMarketPrice
	}

	if quote.Price <= 0 {
		return Quote{}, fmt.Errorf("symbol %s: %w", symbol, ErrNoPrice)
	}

	return quote, nil
}

// DailyCloses returns the daily closes of symbol between start and end, one
// per trading day, dated at midnight UTC. Days Yahoo reports as null are skipped.
func (c *FinanceClient) DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]Close, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.baseURL, url.PathEscape(symbol), start.Unix(), end.Unix())

	response, err := c.queryYahoo(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if len(response.Chart.Result) == 0 {
		return nil, fmt.Errorf("no results returned for symbol %s: %w", symbol, ErrNoPrice)
	}

	result := response.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote indicators for symbol %s: %w", symbol, ErrNoPrice)
	}

	closes := result.Indicators.Quote[0].Close
	history := make([]Close, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		history = append(history, Close{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Price: *closes[i],
		})
	}

	return history, nil
}

// queryYahoo executes a GET against the chart API and decodes the response.
// Yahoo rejects requests without a browser-like User-Agent.
func (c *FinanceClient) queryYahoo(ctx context.Context, endpoint string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Response{}, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
		}
		return Response{}, fmt.Errorf("failed to decode yahoo response: %w", err)
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s: %s", response.Chart.Error.Code, response.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	return response, nil
}
