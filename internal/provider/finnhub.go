package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubProvider fetches equity quotes and candles from the Finnhub REST
// API. It sits second in the equity fallback chain.
type FinnhubProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewFinnhubProvider creates a provider rate limited to 30 requests/minute.
func NewFinnhubProvider(apiKey string, tracer trace.Tracer) *FinnhubProvider {
	return &FinnhubProvider{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: finnhubBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(30, 2*time.Second),
	}
}

func (p *FinnhubProvider) Name() string { return domain.SourceFinnhub }

// Quote fetches the current quote for a symbol.
// Response shape: {"c": current, "d": change, "dp": pct, "h": high, "l": low, "o": open, "pc": prev close, "t": unix}
func (p *FinnhubProvider) Quote(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	_, span := p.tracer.Start(ctx, "finnhub.quote")
	defer span.End()

	url := fmt.Sprintf("%s/quote?symbol=%s&token=%s", p.baseURL, symbol, p.apiKey)
	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}

	var raw struct {
		Current   float64 `json:"c"`
		Change    float64 `json:"d"`
		ChangePct float64 `json:"dp"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		Open      float64 `json:"o"`
		Unix      int64   `json:"t"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse quote %s: %w", symbol, err)
	}

	ts := time.Now().UTC()
	if raw.Unix > 0 {
		ts = time.Unix(raw.Unix, 0).UTC()
	}
	return &domain.PriceSnapshot{
		Symbol:    symbol,
		Price:     raw.Current,
		Change:    raw.Change,
		ChangePct: raw.ChangePct,
		DayHigh:   raw.High,
		DayLow:    raw.Low,
		DayOpen:   raw.Open,
		Timestamp: ts,
		Source:    domain.SourceFinnhub,
	}, nil
}

// Candles fetches OHLCV bars from /stock/candle. Finnhub uses resolution
// strings 5, 15, 60, D for our supported intervals.
func (p *FinnhubProvider) Candles(ctx context.Context, symbol, interval string, days int) ([]*domain.Candle, error) {
	_, span := p.tracer.Start(ctx, "finnhub.candles")
	defer span.End()

	resolution, ok := map[string]string{"5m": "5", "15m": "15", "1h": "60", "4h": "60", "1d": "D"}[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval for finnhub: %s", interval)
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	url := fmt.Sprintf("%s/stock/candle?symbol=%s&resolution=%s&from=%d&to=%d&token=%s",
		p.baseURL, symbol, resolution, from.Unix(), to.Unix(), p.apiKey)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("candles %s/%s: %w", symbol, interval, err)
	}

	var raw struct {
		Status string    `json:"s"`
		Times  []int64   `json:"t"`
		Opens  []float64 `json:"o"`
		Highs  []float64 `json:"h"`
		Lows   []float64 `json:"l"`
		Closes []float64 `json:"c"`
		Vols   []float64 `json:"v"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse candles %s: %w", symbol, err)
	}
	if raw.Status != "ok" {
		return nil, fmt.Errorf("finnhub candle status %q for %s", raw.Status, symbol)
	}

	n := len(raw.Times)
	candles := make([]*domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		if i >= len(raw.Opens) || i >= len(raw.Highs) || i >= len(raw.Lows) || i >= len(raw.Closes) {
			break
		}
		vol := 0.0
		if i < len(raw.Vols) {
			vol = raw.Vols[i]
		}
		candles = append(candles, &domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.Unix(raw.Times[i], 0).UTC(),
			Open:     raw.Opens[i],
			High:     raw.Highs[i],
			Low:      raw.Lows[i],
			Close:    raw.Closes[i],
			Volume:   vol,
		})
	}
	return candles, nil
}

func (p *FinnhubProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("finnhub API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
