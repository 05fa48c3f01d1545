package analytics

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// maxRecords bounds the in-memory ring. Oldest trades roll off first.
const maxRecords = 10_000

// TradeStore persists closed trades. Implemented by the pgx trade
// repository; nil disables persistence.
type TradeStore interface {
	SaveTrade(ctx context.Context, trade *domain.TradeRecord) error
	RecentTrades(ctx context.Context, limit int) ([]*domain.TradeRecord, error)
}

// Tracker records trade outcomes and serves the metrics calculator. All
// mutation goes through the mutex; records are value copies so callers can
// not alias internal state.
type Tracker struct {
	mu      sync.Mutex
	records []domain.TradeRecord
	seq     int64

	store  TradeStore
	tracer trace.Tracer
}

func NewTracker(store TradeStore, tracer trace.Tracer) *Tracker {
	return &Tracker{store: store, tracer: tracer}
}

// Restore backfills the ring from the persistent store so metrics survive a
// restart. Called once at startup; a store failure degrades to an empty ring.
func (t *Tracker) Restore(ctx context.Context) {
	if t.store == nil {
		return
	}
	trades, err := t.store.RecentTrades(ctx, maxRecords)
	if err != nil {
		log.Printf("trade history restore failed: %v", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, trade := range trades {
		if trade != nil {
			t.append(*trade)
		}
	}
}

// RecordEntry opens a trade and returns its id.
func (t *Tracker) RecordEntry(ctx context.Context, symbol string, signal domain.SignalAction, entryPrice, confidence float64, entryTime time.Time) (string, error) {
	_, span := t.tracer.Start(ctx, "analytics.record_entry")
	defer span.End()

	if !signal.IsValid() {
		return "", fmt.Errorf("invalid signal action %q", signal)
	}
	if entryPrice <= 0 {
		return "", fmt.Errorf("entry price must be positive, got %f", entryPrice)
	}
	if entryTime.IsZero() {
		entryTime = time.Now().UTC()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	record := domain.TradeRecord{
		ID:         fmt.Sprintf("t-%d-%d", entryTime.Unix(), t.seq),
		Symbol:     symbol,
		Signal:     signal,
		EntryPrice: entryPrice,
		EntryTime:  entryTime,
		Confidence: confidence,
	}
	t.append(record)
	return record.ID, nil
}

// RecordExit closes a trade and derives its outcome. The direction
// multiplier is +1 for BUY, -1 for SELL and 0 for HOLD, so a HOLD always
// books zero profit and counts as correct.
func (t *Tracker) RecordExit(ctx context.Context, id string, exitPrice float64, exitTime time.Time) (*domain.TradeRecord, error) {
	_, span := t.tracer.Start(ctx, "analytics.record_exit")
	defer span.End()

	if exitPrice <= 0 {
		return nil, fmt.Errorf("exit price must be positive, got %f", exitPrice)
	}
	if exitTime.IsZero() {
		exitTime = time.Now().UTC()
	}

	t.mu.Lock()
	idx := -1
	for i := range t.records {
		if t.records[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		return nil, fmt.Errorf("trade %s not found", id)
	}
	if t.records[idx].Closed {
		t.mu.Unlock()
		return nil, fmt.Errorf("trade %s already closed", id)
	}

	record := &t.records[idx]
	record.ExitPrice = exitPrice
	record.ExitTime = exitTime

	dir := directionMultiplier(record.Signal)
	record.Profit = dir * (exitPrice - record.EntryPrice)
	record.ReturnPct = dir * (exitPrice - record.EntryPrice) / record.EntryPrice * 100
	record.WasCorrect = record.Profit > 0 || record.Signal == domain.ActionHold
	record.HoldingHours = exitTime.Sub(record.EntryTime).Hours()
	record.Closed = true

	closed := *record
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SaveTrade(ctx, &closed); err != nil {
			log.Printf("trade persistence failed for %s: %v", closed.ID, err)
		}
	}
	return &closed, nil
}

// ClosedTrades returns value copies of every closed trade, oldest first.
func (t *Tracker) ClosedTrades() []domain.TradeRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.TradeRecord, 0, len(t.records))
	for _, r := range t.records {
		if r.Closed {
			out = append(out, r)
		}
	}
	return out
}

// append assumes the lock is held.
func (t *Tracker) append(record domain.TradeRecord) {
	if len(t.records) >= maxRecords {
		t.records = t.records[1:]
	}
	t.records = append(t.records, record)
}

func directionMultiplier(signal domain.SignalAction) float64 {
	switch signal {
	case domain.ActionBuy:
		return 1
	case domain.ActionSell:
		return -1
	default:
		return 0
	}
}
