package job

import (
	"context"
	"log"
	"time"

	"market-fusion/internal/service"

	"go.opentelemetry.io/otel/trace"
)

// CycleRunner runs one full fusion pass.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*service.CycleStats, error)
}

// FusionPoller runs the fusion cycle on a fixed interval so signals and
// correlations stay fresh without any HTTP traffic.
type FusionPoller struct {
	tracer       trace.Tracer
	runner       CycleRunner
	pollInterval time.Duration
	startDelay   time.Duration
}

func NewFusionPoller(tracer trace.Tracer, runner CycleRunner, pollIntervalSecs int) *FusionPoller {
	return &FusionPoller{
		tracer:       tracer,
		runner:       runner,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
		// Give the price poller a head start so the first cycle sees data.
		startDelay: 30 * time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (p *FusionPoller) Start(ctx context.Context) {
	log.Println("Fusion poller starting...")

	select {
	case <-ctx.Done():
		log.Println("Fusion poller stopped")
		return
	case <-time.After(p.startDelay):
	}

	p.run(ctx)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Fusion poller stopped")
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *FusionPoller) run(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "fusion-poller.run")
	defer span.End()

	if _, err := p.runner.RunCycle(ctx); err != nil {
		log.Printf("fusion cycle error: %v", err)
	}
}
