package fusion

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"market-fusion/internal/domain"
)

// Action thresholds on the expected decimal return. Anything between them is
// a HOLD.
const (
	buyThreshold  = 0.02
	sellThreshold = -0.02
)

// GenerateSignals collapses predictions into one signal per symbol. When a
// symbol carries several predictions the highest-confidence one decides; on
// a confidence tie the earlier prediction wins. Output is sorted by symbol
// so repeated cycles emit a stable order.
func GenerateSignals(predictions []*domain.Prediction) []*domain.Signal {
	best := make(map[string]*domain.Prediction)
	var order []string

	for _, p := range predictions {
		if p == nil {
			continue
		}
		current, seen := best[p.Symbol]
		if !seen {
			best[p.Symbol] = p
			order = append(order, p.Symbol)
			continue
		}
		if p.Confidence > current.Confidence {
			best[p.Symbol] = p
		}
	}

	sort.Strings(order)

	signals := make([]*domain.Signal, 0, len(order))
	for _, symbol := range order {
		signals = append(signals, signalFrom(best[symbol]))
	}
	return signals
}

func signalFrom(p *domain.Prediction) *domain.Signal {
	action := domain.ActionHold
	switch {
	case p.ExpectedReturn >= buyThreshold:
		action = domain.ActionBuy
	case p.ExpectedReturn <= sellThreshold:
		action = domain.ActionSell
	}

	return &domain.Signal{
		Symbol:     p.Symbol,
		Market:     p.Market,
		Action:     action,
		Confidence: p.Confidence,
		LastPrice:  p.LastPrice,
		ChangePct:  p.ChangePct,
		Volume:     p.Volume,
		Rationale:  rationale(p, action),
		Timestamp:  time.Now().UTC(),
	}
}

func rationale(p *domain.Prediction, action domain.SignalAction) string {
	return fmt.Sprintf("%s: %s (expected %.2f%% over %s, confidence %.0f%%)",
		action,
		strings.Join(p.Reasons, "; "),
		p.ExpectedReturn*100,
		p.Horizon,
		p.Confidence*100,
	)
}
