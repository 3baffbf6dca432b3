package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/domain"
	"github.com/couchcryptid/subject-tracker/internal/observability"
)

// Poller drives the resolution loop on a fixed interval and feeds results
// through the change detector. The latest result is kept for the HTTP layer.
type Poller struct {
	resolver *Resolver
	detector *ChangeDetector
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	ready atomic.Bool

	mu         sync.RWMutex
	latest     domain.CandidateLocation
	resolvedAt time.Time
}

// NewPoller creates a poller.
func NewPoller(resolver *Resolver, detector *ChangeDetector, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		resolver: resolver,
		detector: detector,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one resolution cycle completed.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no resolution cycle has completed yet")
	}
	return nil
}

// Latest returns the most recent winning candidate and when it was resolved.
func (p *Poller) Latest() (domain.CandidateLocation, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.resolvedAt
}

// Run executes the resolution loop until the context is cancelled. The first
// cycle runs immediately.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("resolution loop started", "interval", p.interval)
	p.metrics.TrackerRunning.Set(1)
	defer p.metrics.TrackerRunning.Set(0)

	for {
		p.runCycle(ctx)

		if !sleepWithContext(ctx, p.interval) {
			p.logger.Info("resolution loop stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func (p *Poller) runCycle(ctx context.Context) {
	start := time.Now()
	result, flight := p.resolver.Cycle(ctx)
	p.metrics.ResolutionDuration.Observe(time.Since(start).Seconds())
	p.metrics.ResolutionCycles.Inc()

	p.mu.Lock()
	p.latest = result
	p.resolvedAt = domain.Now()
	p.mu.Unlock()

	p.logger.Info("resolved location",
		"name", result.Name,
		"reason", result.Reason,
		"confidence", result.Confidence,
	)

	p.detector.Observe(ctx, result, flight)

	// The first completed cycle seeds the detector's state; transitions are
	// reported from the second cycle on.
	if !p.ready.Load() {
		p.detector.MarkInitialized()
		p.ready.Store(true)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
