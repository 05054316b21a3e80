package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
//
// Close prices are pointers because Yahoo reports null for intervals without trades.
type Response struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote is the latest known price of a symbol.
type Quote struct {
	Symbol   string
	Currency string
	Price    float64
	Date     time.Time
}

// Close is the closing price of one trading day.
type Close struct {
	Date  time.Time // midnight UTC
	Price float64
}
