package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// resolution loop.
type Metrics struct {
	ResolutionCycles   prometheus.Counter
	ResolutionDuration prometheus.Histogram
	TrackerRunning     prometheus.Gauge
	LocationChanges    prometheus.Counter
	EventsPublished    prometheus.Counter
	PublishErrors      prometheus.Counter

	// Per-source metrics.
	ResolvedReason *prometheus.CounterVec   // label: reason
	FeedFetches    *prometheus.CounterVec   // labels: feed, outcome={success,error,empty}
	FeedDuration   *prometheus.HistogramVec // label: feed

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: scope={us,intl}, outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // label: result={hit,miss}
	GeocodeSkipped  prometheus.Counter
}

// NewMetrics creates and registers all tracker metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ResolutionCycles,
		m.ResolutionDuration,
		m.TrackerRunning,
		m.LocationChanges,
		m.EventsPublished,
		m.PublishErrors,
		m.ResolvedReason,
		m.FeedFetches,
		m.FeedDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeSkipped,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ResolutionCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "subject_tracker",
			Name:      "resolution_cycles_total",
			Help:      "Total completed resolution cycles.",
		}),
		ResolutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "subject_tracker",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of a complete resolution cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		TrackerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "subject_tracker",
			Name:      "running",
			Help:      "1 when the resolution loop is active, 0 when shut down.",
		}),
		LocationChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "subject_tracker",
			Name:      "location_changes_total",
			Help:      "Total detected location changes.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "subject_tracker",
			Name:      "events_published_total",
			Help:      "Total change events delivered to the sink.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "subject_tracker",
			Name:      "publish_errors_total",
			Help:      "Total change event delivery failures.",
		}),
		ResolvedReason: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subject_tracker",
			Name:      "resolved_reason_total",
			Help:      "Winning candidates by reason tag.",
		}, []string{"reason"}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subject_tracker",
			Name:      "feed_fetches_total",
			Help:      "Upstream feed fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FeedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "subject_tracker",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Upstream feed fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"feed"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subject_tracker",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by scope and outcome.",
		}, []string{"scope", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subject_tracker",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "subject_tracker",
			Name:      "geocode_skipped_total",
			Help:      "Geocoding lookups suppressed by the skip-list.",
		}),
	}
}
