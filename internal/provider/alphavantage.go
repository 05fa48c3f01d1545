package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageProvider fetches equity quotes and time series from the
// Alpha Vantage free API. Every numeric field in its payloads is a string.
type AlphaVantageProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewAlphaVantageProvider creates a provider with built-in rate limiting.
// The free tier allows 5 requests per minute.
func NewAlphaVantageProvider(apiKey string, tracer trace.Tracer) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: alphaVantageBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(5, 12*time.Second),
	}
}

func (p *AlphaVantageProvider) Name() string { return domain.SourceAlphaVantage }

// Quote fetches the current GLOBAL_QUOTE snapshot for a symbol.
func (p *AlphaVantageProvider) Quote(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	_, span := p.tracer.Start(ctx, "alphavantage.quote")
	defer span.End()

	url := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		p.baseURL, symbol, p.apiKey)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}

	var raw struct {
		Quote map[string]string `json:"Global Quote"`
		Note  string            `json:"Note"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse quote %s: %w", symbol, err)
	}
	if raw.Note != "" {
		return nil, fmt.Errorf("alphavantage throttled: %s", raw.Note)
	}
	if len(raw.Quote) == 0 {
		return nil, fmt.Errorf("empty quote payload for %s", symbol)
	}

	snap := &domain.PriceSnapshot{
		Symbol:    symbol,
		Price:     avFloat(raw.Quote["05. price"]),
		Change:    avFloat(raw.Quote["09. change"]),
		ChangePct: avFloat(strings.TrimSuffix(raw.Quote["10. change percent"], "%")),
		Volume:    avFloat(raw.Quote["06. volume"]),
		DayHigh:   avFloat(raw.Quote["03. high"]),
		DayLow:    avFloat(raw.Quote["04. low"]),
		DayOpen:   avFloat(raw.Quote["02. open"]),
		Timestamp: time.Now().UTC(),
		Source:    domain.SourceAlphaVantage,
	}
	return snap, nil
}

// Candles fetches historical bars. Daily bars come from TIME_SERIES_DAILY,
// intraday intervals from TIME_SERIES_INTRADAY. Bars are returned oldest
// first, truncated to the requested day window.
func (p *AlphaVantageProvider) Candles(ctx context.Context, symbol, interval string, days int) ([]*domain.Candle, error) {
	_, span := p.tracer.Start(ctx, "alphavantage.candles")
	defer span.End()

	var url, seriesKey string
	switch interval {
	case "1d":
		url = fmt.Sprintf("%s/query?function=TIME_SERIES_DAILY&symbol=%s&outputsize=compact&apikey=%s",
			p.baseURL, symbol, p.apiKey)
		seriesKey = "Time Series (Daily)"
	case "5m", "15m", "1h":
		avInterval := map[string]string{"5m": "5min", "15m": "15min", "1h": "60min"}[interval]
		url = fmt.Sprintf("%s/query?function=TIME_SERIES_INTRADAY&symbol=%s&interval=%s&outputsize=compact&apikey=%s",
			p.baseURL, symbol, avInterval, p.apiKey)
		seriesKey = fmt.Sprintf("Time Series (%s)", avInterval)
	default:
		return nil, fmt.Errorf("unsupported interval for alphavantage: %s", interval)
	}

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("candles %s/%s: %w", symbol, interval, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse candles %s: %w", symbol, err)
	}
	seriesRaw, ok := raw[seriesKey]
	if !ok {
		return nil, fmt.Errorf("missing series %q for %s", seriesKey, symbol)
	}

	var series map[string]map[string]string
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		return nil, fmt.Errorf("parse series %s: %w", symbol, err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	candles := make([]*domain.Candle, 0, len(series))
	for stamp, bar := range series {
		t, err := parseAVTimestamp(stamp)
		if err != nil || t.Before(cutoff) {
			continue
		}
		candles = append(candles, &domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: t,
			Open:     avFloat(bar["1. open"]),
			High:     avFloat(bar["2. high"]),
			Low:      avFloat(bar["3. low"]),
			Close:    avFloat(bar["4. close"]),
			Volume:   avFloat(bar["5. volume"]),
		})
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].OpenTime.Before(candles[j].OpenTime) })
	return candles, nil
}

func (p *AlphaVantageProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
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
		return nil, fmt.Errorf("alphavantage API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func avFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseAVTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", v)
}
