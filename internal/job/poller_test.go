package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"market-fusion/internal/domain"
	"market-fusion/internal/service"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

type stubRefresher struct {
	mu            sync.Mutex
	refreshCalls  int
	candleSymbols []string
}

func (s *stubRefresher) RefreshPrices(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	return nil
}

func (s *stubRefresher) RefreshCandles(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candleSymbols = append(s.candleSymbols, symbol)
	return nil
}

func (s *stubRefresher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

func TestNewPricePollerInterval(t *testing.T) {
	poller := NewPricePoller(testTracer, &stubRefresher{}, 2)
	if poller.pollInterval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", poller.pollInterval)
	}
}

func TestPricePollerRunsImmediately(t *testing.T) {
	t.Parallel()

	stub := &stubRefresher{}
	poller := NewPricePoller(testTracer, stub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Start(ctx)

	eventually(t, func() bool { return stub.calls() > 0 })
	cancel()
}

func TestRefreshCandleBatchRoundRobin(t *testing.T) {
	stub := &stubRefresher{}
	poller := NewPricePoller(testTracer, stub, 1)

	idx := 0
	poller.refreshCandleBatch(context.Background(), &idx, 3)

	if len(stub.candleSymbols) != 3 {
		t.Fatalf("expected 3 symbols, got %d", len(stub.candleSymbols))
	}
	if stub.candleSymbols[0] != domain.AllSymbols()[0] {
		t.Fatalf("unexpected symbol order: %+v", stub.candleSymbols)
	}

	// A second batch continues where the first stopped.
	poller.refreshCandleBatch(context.Background(), &idx, 1)
	if stub.candleSymbols[3] != domain.AllSymbols()[3] {
		t.Fatalf("round robin broken: %+v", stub.candleSymbols)
	}
}

type stubRunner struct {
	mu    sync.Mutex
	calls int
}

func (s *stubRunner) RunCycle(ctx context.Context) (*service.CycleStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return &service.CycleStats{}, nil
}

func (s *stubRunner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestFusionPollerRunsAfterDelay(t *testing.T) {
	t.Parallel()

	stub := &stubRunner{}
	poller := NewFusionPoller(testTracer, stub, 1)
	poller.startDelay = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Start(ctx)

	eventually(t, func() bool { return stub.count() > 0 })
	cancel()
}

func TestFusionPollerStopsOnCancel(t *testing.T) {
	t.Parallel()

	stub := &stubRunner{}
	poller := NewFusionPoller(testTracer, stub, 1)
	poller.startDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}
	if stub.count() != 0 {
		t.Fatalf("cancelled poller must not run, got %d calls", stub.count())
	}
}
