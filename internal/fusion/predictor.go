package fusion

import (
	"fmt"
	"math"
	"time"

	"market-fusion/internal/domain"
)

// Horizons lists the prediction horizons produced per cycle.
var Horizons = []string{"1h", "1d"}

const predictionModel = "fusion:v1"

const (
	momentumWeight  = 0.7
	sentimentWeight = 0.3

	realDataQuality        = 0.8
	placeholderDataQuality = 0.4

	highVolatility = 0.03
)

// Predict fuses price momentum with news sentiment into an expected return
// for one symbol and horizon. Pure function: same inputs, same prediction.
func Predict(snap *domain.PriceSnapshot, sentiment domain.SentimentScore, horizon string) *domain.Prediction {
	if snap == nil {
		return nil
	}

	market, ok := domain.MarketOf(snap.Symbol)
	if !ok {
		return nil
	}

	volatility := math.Abs(snap.ChangePct) / 100

	// Momentum and sentiment both expressed in percentage points before the
	// final conversion to a decimal return.
	momentumTerm := momentumWeight * snap.ChangePct
	sentimentTerm := sentimentWeight * ((sentiment.Positive - 0.5) * 10)
	expectedReturn := (momentumTerm + sentimentTerm) / 100

	dataQuality := realDataQuality
	if snap.IsPlaceholder() {
		dataQuality = placeholderDataQuality
	}
	confidence := 0.6*dataQuality + 0.4*sentiment.Confidence

	reasons := buildReasons(snap.ChangePct, sentiment.Positive, volatility)

	return &domain.Prediction{
		Symbol:         snap.Symbol,
		Market:         market,
		Horizon:        horizon,
		ExpectedReturn: expectedReturn,
		Confidence:     confidence,
		Reasons:        reasons,
		Volatility:     volatility,
		LastPrice:      snap.Price,
		ChangePct:      snap.ChangePct,
		Volume:         snap.Volume,
		Timestamp:      time.Now().UTC(),
		Model:          predictionModel,
	}
}

// PredictAll produces one prediction per configured horizon.
func PredictAll(snap *domain.PriceSnapshot, sentiment domain.SentimentScore) []*domain.Prediction {
	out := make([]*domain.Prediction, 0, len(Horizons))
	for _, horizon := range Horizons {
		if p := Predict(snap, sentiment, horizon); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func buildReasons(changePct, positive, volatility float64) []string {
	reasons := make([]string, 0, 3)

	direction := "flat"
	if changePct > 0 {
		direction = "positive"
	} else if changePct < 0 {
		direction = "negative"
	}
	reasons = append(reasons, fmt.Sprintf("%s momentum (%.2f%% daily change)", direction, changePct))

	if positive > 0.6 {
		reasons = append(reasons, fmt.Sprintf("bullish news sentiment (%.0f%% positive)", positive*100))
	}
	if volatility > highVolatility {
		reasons = append(reasons, fmt.Sprintf("elevated volatility (%.1f%%)", volatility*100))
	}
	return reasons
}
