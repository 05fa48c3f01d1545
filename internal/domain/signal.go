package domain

import "time"

// SignalAction is the discrete trading verdict derived from a prediction.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

func (a SignalAction) IsValid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionHold
}

// Prediction is a per-symbol, per-horizon expected return with supporting
// rationale. Several predictions may coexist for one symbol (one per
// horizon); the Signal derives from the highest-confidence one.
type Prediction struct {
	Symbol         string    `json:"symbol"`
	Market         Market    `json:"market"`
	Horizon        string    `json:"horizon"`
	ExpectedReturn float64   `json:"expected_return"`
	Confidence     float64   `json:"confidence"`
	Reasons        []string  `json:"reasons"`
	Volatility     float64   `json:"volatility"`
	LastPrice      float64   `json:"last_price"`
	ChangePct      float64   `json:"change_pct"`
	Volume         float64   `json:"volume"`
	Timestamp      time.Time `json:"timestamp"`
	Model          string    `json:"model"`
}

// PivotRef points at a correlated counterpart in another (symbol, market)
// pair, strongest first in any ranked list.
type PivotRef struct {
	Symbol      string  `json:"symbol"`
	Market      Market  `json:"market"`
	Correlation float64 `json:"correlation"`
}

// Signal is the current directional verdict for a (symbol, market) pair.
// One current signal per pair; superseded, not versioned.
type Signal struct {
	Symbol     string       `json:"symbol"`
	Market     Market       `json:"market"`
	Action     SignalAction `json:"action"`
	Confidence float64      `json:"confidence"`
	LastPrice  float64      `json:"last_price"`
	ChangePct  float64      `json:"change_pct"`
	Volume     float64      `json:"volume"`
	Rationale  string       `json:"rationale"`
	Correlated []PivotRef   `json:"correlated,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// CorrelationEdge is a computed pairwise correlation between two return
// series. Stored directionally as (A, B); the coefficient itself is symmetric.
type CorrelationEdge struct {
	SymbolA      string    `json:"symbol_a"`
	MarketA      Market    `json:"market_a"`
	SymbolB      string    `json:"symbol_b"`
	MarketB      Market    `json:"market_b"`
	Correlation  float64   `json:"correlation"`
	Significance float64   `json:"significance"`
	Window       string    `json:"window"`
	SampleSize   int       `json:"sample_size"`
	Timestamp    time.Time `json:"timestamp"`
}
