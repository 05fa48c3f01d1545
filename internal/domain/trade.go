package domain

import "time"

// TradeRecord is one executed trade. Created at entry, mutated exactly once
// at exit (exit fields plus the derived profit/return/correctness/holding
// period), then immutable.
type TradeRecord struct {
	ID           string       `json:"id"`
	Symbol       string       `json:"symbol"`
	Signal       SignalAction `json:"signal"`
	EntryPrice   float64      `json:"entry_price"`
	ExitPrice    float64      `json:"exit_price,omitempty"`
	EntryTime    time.Time    `json:"entry_time"`
	ExitTime     time.Time    `json:"exit_time,omitempty"`
	Profit       float64      `json:"profit"`
	ReturnPct    float64      `json:"return_pct"`
	Confidence   float64      `json:"confidence"`
	WasCorrect   bool         `json:"was_correct"`
	HoldingHours float64      `json:"holding_hours"`
	Closed       bool         `json:"closed"`
}

// TradingStyle is inferred from the mean holding duration of closed trades.
type TradingStyle string

const (
	StyleScalper  TradingStyle = "scalper"
	StyleSwing    TradingStyle = "swing"
	StylePosition TradingStyle = "position"
	StyleUnknown  TradingStyle = "unknown"
)

// PerformanceMetrics is derived on demand from a window of trade records,
// never persisted as mutable state.
type PerformanceMetrics struct {
	Period       string       `json:"period"`
	TotalTrades  int          `json:"total_trades"`
	Wins         int          `json:"wins"`
	Losses       int          `json:"losses"`
	WinRate      float64      `json:"win_rate"`
	AvgReturnPct float64      `json:"avg_return_pct"`
	RiskReward   float64      `json:"risk_reward"`
	SharpeRatio  float64      `json:"sharpe_ratio"`
	MaxDrawdown  float64      `json:"max_drawdown"`
	BestSymbol   string       `json:"best_symbol,omitempty"`
	WorstSymbol  string       `json:"worst_symbol,omitempty"`
	TradingStyle TradingStyle `json:"trading_style"`
	ProfitFactor float64      `json:"profit_factor"`
	AvgHoldHours float64      `json:"avg_hold_hours"`
	ComputedAt   time.Time    `json:"computed_at"`
}

// InsightPriority ranks a recommendation.
type InsightPriority string

const (
	PriorityHigh   InsightPriority = "high"
	PriorityMedium InsightPriority = "medium"
	PriorityLow    InsightPriority = "low"
)

// Insight is a qualitative recommendation derived from metrics thresholds.
type Insight struct {
	Message  string          `json:"message"`
	Priority InsightPriority `json:"priority"`
}

// Metric kinds published into the read-model store.
const (
	MetricKindPrice       = "price"
	MetricKindSentiment   = "sentiment"
	MetricKindSignal      = "signal"
	MetricKindPrediction  = "prediction"
	MetricKindCorrelation = "correlation"
)
