package domain

import "time"

// Price provenance tags carried on PriceSnapshot.Source.
const (
	SourceAlphaVantage = "alphavantage"
	SourceFinnhub      = "finnhub"
	SourceCoinGecko    = "coingecko"
	SourcePlaceholder  = "placeholder"
)

// PriceSnapshot is the latest quote for a symbol. Immutable once created;
// it is superseded by the next poll, never mutated.
type PriceSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	Volume    float64   `json:"volume"`
	DayHigh   float64   `json:"day_high"`
	DayLow    float64   `json:"day_low"`
	DayOpen   float64   `json:"day_open"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`

	MarketCap     float64 `json:"market_cap,omitempty"`
	PERatio       float64 `json:"pe_ratio,omitempty"`
	DividendYield float64 `json:"dividend_yield,omitempty"`
}

// IsPlaceholder reports whether the snapshot was synthesized rather than
// fetched from a real upstream.
func (s *PriceSnapshot) IsPlaceholder() bool {
	return s.Source == SourcePlaceholder
}

// Candle represents a single OHLCV bar for a symbol at a given interval.
type Candle struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}
