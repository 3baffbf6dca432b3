package resolver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/domain"
	"github.com/couchcryptid/subject-tracker/internal/observability"
)

// ChangeType classifies a detected transition.
type ChangeType string

const (
	// ChangeAirborne fires when the flight feed transitions into airborne.
	ChangeAirborne ChangeType = "airborne"
	// ChangeLanded fires when the flight feed transitions from airborne to
	// grounded.
	ChangeLanded ChangeType = "landed"
	// ChangeReason fires when the winning reason tag changes between cycles.
	ChangeReason ChangeType = "reason_change"
)

// ChangeEvent is published on every detected transition.
type ChangeEvent struct {
	Type       ChangeType               `json:"type"`
	PrevReason domain.Reason            `json:"prev_reason,omitempty"`
	Location   domain.CandidateLocation `json:"location"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// EventSink delivers change events downstream.
type EventSink interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// LogSink writes change events to the log. It is the sink of last resort and
// the default when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, ev ChangeEvent) error {
	s.logger.Info("subject transition",
		"type", ev.Type,
		"prev_reason", ev.PrevReason,
		"reason", ev.Location.Reason,
		"name", ev.Location.Name,
		"confidence", ev.Location.Confidence,
	)
	return nil
}

// TrackedSubjectState is the process-wide view the detector compares each
// cycle against.
type TrackedSubjectState struct {
	Reason       domain.Reason
	FlightStatus domain.FlightStatus // empty when the feed saw nothing
}

// ChangeDetector compares each cycle's winning candidate and raw flight
// reading against the tracked state and publishes transition events. All
// emission is suppressed until MarkInitialized is called, so a process
// restart never fires synthetic transitions for state that predates it.
type ChangeDetector struct {
	sink    EventSink
	logger  *slog.Logger
	metrics *observability.Metrics

	mu           sync.Mutex
	state        TrackedSubjectState
	initializing bool
}

// NewChangeDetector creates a detector publishing to sink.
func NewChangeDetector(sink EventSink, logger *slog.Logger, metrics *observability.Metrics) *ChangeDetector {
	return &ChangeDetector{sink: sink, logger: logger, metrics: metrics, initializing: true}
}

// MarkInitialized lifts the boot-time suppression. The caller invokes it
// once, after the first complete cycle has populated the tracked state.
func (d *ChangeDetector) MarkInitialized() {
	d.mu.Lock()
	d.initializing = false
	d.mu.Unlock()
}

// State returns the current tracked state.
func (d *ChangeDetector) State() TrackedSubjectState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Observe feeds one cycle's result through the detector. flight may be nil
// when the feed saw no fleet aircraft; a nil reading keeps the previous
// flight status rather than inventing a landing.
func (d *ChangeDetector) Observe(ctx context.Context, winner domain.CandidateLocation, flight *domain.FlightState) {
	d.mu.Lock()
	prev := d.state
	d.state.Reason = winner.Reason
	if flight != nil {
		d.state.FlightStatus = flight.Status
	}
	suppressed := d.initializing
	d.mu.Unlock()

	if suppressed {
		return
	}

	now := domain.Now()
	if flight != nil && flight.Status != prev.FlightStatus {
		switch {
		case flight.Status == domain.FlightAirborne:
			d.publish(ctx, ChangeEvent{Type: ChangeAirborne, PrevReason: prev.Reason, Location: winner, OccurredAt: now})
		case flight.Status == domain.FlightGrounded && prev.FlightStatus == domain.FlightAirborne:
			d.publish(ctx, ChangeEvent{Type: ChangeLanded, PrevReason: prev.Reason, Location: winner, OccurredAt: now})
		}
	}

	if winner.Reason != prev.Reason {
		d.publish(ctx, ChangeEvent{Type: ChangeReason, PrevReason: prev.Reason, Location: winner, OccurredAt: now})
	}
}

func (d *ChangeDetector) publish(ctx context.Context, ev ChangeEvent) {
	d.metrics.LocationChanges.Inc()
	if err := d.sink.Publish(ctx, ev); err != nil {
		d.metrics.PublishErrors.Inc()
		d.logger.Error("change event publish failed", "type", ev.Type, "error", err)
		return
	}
	d.metrics.EventsPublished.Inc()
}
