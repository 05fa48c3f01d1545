package fusion

import (
	"math"
	"strings"
	"testing"
	"time"

	"market-fusion/internal/domain"
)

func snapshot(symbol string, changePct float64) *domain.PriceSnapshot {
	return &domain.PriceSnapshot{
		Symbol:    symbol,
		Price:     100,
		ChangePct: changePct,
		Volume:    1_000_000,
		Timestamp: time.Now().UTC(),
		Source:    domain.SourceFinnhub,
	}
}

func neutralSentiment() domain.SentimentScore {
	return domain.SentimentScore{Positive: 0.5, Negative: 0.25, Neutral: 0.25, Confidence: 0.5}
}

func TestPredictExpectedReturnFormula(t *testing.T) {
	t.Parallel()

	// 0.7*4.0 + 0.3*((0.8-0.5)*10) = 2.8 + 0.9 = 3.7 points, 0.037 decimal.
	sent := domain.SentimentScore{Positive: 0.8, Negative: 0.1, Neutral: 0.1, Confidence: 0.7}
	p := Predict(snapshot("AAPL", 4.0), sent, "1d")
	if p == nil {
		t.Fatal("expected prediction")
	}
	if math.Abs(p.ExpectedReturn-0.037) > 1e-9 {
		t.Fatalf("expected 0.037, got %f", p.ExpectedReturn)
	}
	if math.Abs(p.Volatility-0.04) > 1e-9 {
		t.Fatalf("expected volatility 0.04, got %f", p.Volatility)
	}
	// 0.6*0.8 + 0.4*0.7 = 0.76
	if math.Abs(p.Confidence-0.76) > 1e-9 {
		t.Fatalf("expected confidence 0.76, got %f", p.Confidence)
	}
	if p.Market != domain.MarketStocks {
		t.Fatalf("expected stocks market, got %s", p.Market)
	}
}

func TestPredictPlaceholderLowersConfidence(t *testing.T) {
	t.Parallel()

	snap := snapshot("BTC", 1.0)
	snap.Source = domain.SourcePlaceholder

	p := Predict(snap, neutralSentiment(), "1h")
	// 0.6*0.4 + 0.4*0.5 = 0.44
	if math.Abs(p.Confidence-0.44) > 1e-9 {
		t.Fatalf("expected confidence 0.44, got %f", p.Confidence)
	}
}

func TestPredictReasons(t *testing.T) {
	t.Parallel()

	sent := domain.SentimentScore{Positive: 0.7, Negative: 0.1, Neutral: 0.2, Confidence: 0.6}
	p := Predict(snapshot("NVDA", 5.0), sent, "1d")

	if len(p.Reasons) != 3 {
		t.Fatalf("expected momentum+sentiment+volatility reasons, got %v", p.Reasons)
	}
	if !strings.Contains(p.Reasons[0], "momentum") {
		t.Fatalf("first reason must name momentum, got %v", p.Reasons)
	}

	quiet := Predict(snapshot("NVDA", 0.5), neutralSentiment(), "1d")
	if len(quiet.Reasons) != 1 {
		t.Fatalf("quiet tape should only carry momentum, got %v", quiet.Reasons)
	}
}

func TestPredictUnknownSymbol(t *testing.T) {
	t.Parallel()

	if Predict(snapshot("UNKNOWN", 1.0), neutralSentiment(), "1d") != nil {
		t.Fatal("expected nil for unknown symbol")
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	t.Parallel()

	sent := neutralSentiment()
	a := Predict(snapshot("ETH", 2.5), sent, "1h")
	b := Predict(snapshot("ETH", 2.5), sent, "1h")
	if a.ExpectedReturn != b.ExpectedReturn || a.Confidence != b.Confidence {
		t.Fatalf("prediction must be deterministic: %+v vs %+v", a, b)
	}
}

func TestGenerateSignalsThresholds(t *testing.T) {
	t.Parallel()

	preds := []*domain.Prediction{
		{Symbol: "AAPL", Market: domain.MarketStocks, Horizon: "1d", ExpectedReturn: 0.025, Confidence: 0.7},
		{Symbol: "BTC", Market: domain.MarketCrypto, Horizon: "1d", ExpectedReturn: -0.025, Confidence: 0.7},
		{Symbol: "JNJ", Market: domain.MarketStocks, Horizon: "1d", ExpectedReturn: 0.01, Confidence: 0.7},
	}

	signals := GenerateSignals(preds)
	if len(signals) != 3 {
		t.Fatalf("expected one signal per symbol, got %d", len(signals))
	}

	byaction := map[string]domain.SignalAction{}
	for _, s := range signals {
		byaction[s.Symbol] = s.Action
	}
	if byaction["AAPL"] != domain.ActionBuy {
		t.Fatalf("+2.5%% should be BUY, got %s", byaction["AAPL"])
	}
	if byaction["BTC"] != domain.ActionSell {
		t.Fatalf("-2.5%% should be SELL, got %s", byaction["BTC"])
	}
	if byaction["JNJ"] != domain.ActionHold {
		t.Fatalf("+1%% should be HOLD, got %s", byaction["JNJ"])
	}
}

func TestGenerateSignalsPicksHighestConfidence(t *testing.T) {
	t.Parallel()

	preds := []*domain.Prediction{
		{Symbol: "SOL", Market: domain.MarketCrypto, Horizon: "1h", ExpectedReturn: 0.05, Confidence: 0.5},
		{Symbol: "SOL", Market: domain.MarketCrypto, Horizon: "1d", ExpectedReturn: -0.05, Confidence: 0.8},
	}

	signals := GenerateSignals(preds)
	if len(signals) != 1 {
		t.Fatalf("expected one signal, got %d", len(signals))
	}
	if signals[0].Action != domain.ActionSell {
		t.Fatalf("higher-confidence prediction must decide, got %s", signals[0].Action)
	}
}

func TestGenerateSignalsFirstWinsConfidenceTie(t *testing.T) {
	t.Parallel()

	preds := []*domain.Prediction{
		{Symbol: "ADA", Market: domain.MarketCrypto, Horizon: "1h", ExpectedReturn: 0.05, Confidence: 0.6},
		{Symbol: "ADA", Market: domain.MarketCrypto, Horizon: "1d", ExpectedReturn: -0.05, Confidence: 0.6},
	}

	signals := GenerateSignals(preds)
	if signals[0].Action != domain.ActionBuy {
		t.Fatalf("first prediction must win a tie, got %s", signals[0].Action)
	}
}

func TestSignalRationaleMentionsVerdict(t *testing.T) {
	t.Parallel()

	p := &domain.Prediction{
		Symbol: "AAPL", Market: domain.MarketStocks, Horizon: "1d",
		ExpectedReturn: 0.03, Confidence: 0.75,
		Reasons: []string{"positive momentum (3.00% daily change)"},
	}
	s := signalFrom(p)
	if !strings.HasPrefix(s.Rationale, "BUY:") {
		t.Fatalf("rationale must lead with the verdict, got %q", s.Rationale)
	}
	if !strings.Contains(s.Rationale, "75%") {
		t.Fatalf("rationale must carry confidence, got %q", s.Rationale)
	}
}
