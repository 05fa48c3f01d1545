package analytics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubTradeStore struct {
	saved   []*domain.TradeRecord
	history []*domain.TradeRecord
	saveErr error
}

func (s *stubTradeStore) SaveTrade(ctx context.Context, trade *domain.TradeRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, trade)
	return nil
}

func (s *stubTradeStore) RecentTrades(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	return s.history, nil
}

func closeTrade(t *testing.T, tr *Tracker, symbol string, signal domain.SignalAction, entry, exit float64, entryTime time.Time, hold time.Duration) *domain.TradeRecord {
	t.Helper()
	id, err := tr.RecordEntry(context.Background(), symbol, signal, entry, 0.7, entryTime)
	if err != nil {
		t.Fatalf("entry failed: %v", err)
	}
	record, err := tr.RecordExit(context.Background(), id, exit, entryTime.Add(hold))
	if err != nil {
		t.Fatalf("exit failed: %v", err)
	}
	return record
}

func TestRecordBuyProfit(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, testTracer)
	now := time.Now().UTC()

	record := closeTrade(t, tr, "AAPL", domain.ActionBuy, 100, 110, now, 6*time.Hour)
	if record.Profit != 10 {
		t.Fatalf("expected profit 10, got %f", record.Profit)
	}
	if math.Abs(record.ReturnPct-10) > 1e-9 {
		t.Fatalf("expected return 10%%, got %f", record.ReturnPct)
	}
	if !record.WasCorrect {
		t.Fatal("profitable BUY must be correct")
	}
	if record.HoldingHours != 6 {
		t.Fatalf("expected 6 holding hours, got %f", record.HoldingHours)
	}
}

func TestRecordSellDirectionInverts(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, testTracer)
	record := closeTrade(t, tr, "BTC", domain.ActionSell, 100, 110, time.Now().UTC(), time.Hour)
	if record.Profit != -10 {
		t.Fatalf("SELL into a rising price must lose, got %f", record.Profit)
	}
	if record.WasCorrect {
		t.Fatal("losing SELL must not be correct")
	}
}

func TestRecordHoldAlwaysCorrect(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, testTracer)
	record := closeTrade(t, tr, "ETH", domain.ActionHold, 100, 50, time.Now().UTC(), time.Hour)
	if record.Profit != 0 || record.ReturnPct != 0 {
		t.Fatalf("HOLD must book zero, got %+v", record)
	}
	if !record.WasCorrect {
		t.Fatal("HOLD is always correct")
	}
}

func TestRecordExitValidations(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, testTracer)
	if _, err := tr.RecordExit(context.Background(), "missing", 100, time.Now()); err == nil {
		t.Fatal("expected error for unknown trade")
	}

	id, _ := tr.RecordEntry(context.Background(), "AAPL", domain.ActionBuy, 100, 0.5, time.Now())
	if _, err := tr.RecordExit(context.Background(), id, 110, time.Now()); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if _, err := tr.RecordExit(context.Background(), id, 120, time.Now()); err == nil {
		t.Fatal("expected error on double close")
	}
}

func TestRecordEntryValidations(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, testTracer)
	if _, err := tr.RecordEntry(context.Background(), "AAPL", "SHORT", 100, 0.5, time.Now()); err == nil {
		t.Fatal("expected error for invalid action")
	}
	if _, err := tr.RecordEntry(context.Background(), "AAPL", domain.ActionBuy, 0, 0.5, time.Now()); err == nil {
		t.Fatal("expected error for non-positive entry price")
	}
}

func TestClosedTradesMirroredToStore(t *testing.T) {
	t.Parallel()

	store := &stubTradeStore{}
	tr := NewTracker(store, testTracer)
	closeTrade(t, tr, "AAPL", domain.ActionBuy, 100, 105, time.Now().UTC(), time.Hour)

	if len(store.saved) != 1 || store.saved[0].Symbol != "AAPL" {
		t.Fatalf("expected closed trade persisted, got %+v", store.saved)
	}
}

func TestStoreFailureDoesNotBlockClose(t *testing.T) {
	t.Parallel()

	store := &stubTradeStore{saveErr: errors.New("db down")}
	tr := NewTracker(store, testTracer)

	record := closeTrade(t, tr, "AAPL", domain.ActionBuy, 100, 105, time.Now().UTC(), time.Hour)
	if !record.Closed {
		t.Fatal("close must succeed even when persistence fails")
	}
}

func TestRestoreBackfillsRing(t *testing.T) {
	t.Parallel()

	store := &stubTradeStore{history: []*domain.TradeRecord{
		{ID: "t-1", Symbol: "AAPL", Signal: domain.ActionBuy, Profit: 5, ReturnPct: 5, Closed: true, ExitTime: time.Now().UTC()},
	}}
	tr := NewTracker(store, testTracer)
	tr.Restore(context.Background())

	if got := tr.ClosedTrades(); len(got) != 1 || got[0].ID != "t-1" {
		t.Fatalf("expected restored trade, got %+v", got)
	}
}

func TestRingStaysBounded(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, testTracer)
	now := time.Now().UTC()
	for i := 0; i < maxRecords+10; i++ {
		if _, err := tr.RecordEntry(context.Background(), "AAPL", domain.ActionHold, 100, 0.5, now); err != nil {
			t.Fatalf("entry %d failed: %v", i, err)
		}
	}

	tr.mu.Lock()
	n := len(tr.records)
	tr.mu.Unlock()
	if n != maxRecords {
		t.Fatalf("ring must stay at %d, got %d", maxRecords, n)
	}
}
