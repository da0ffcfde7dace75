package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Badge award outcomes.
const (
	OutcomeGranted   = "granted"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

var (
	// BadgeAwardsTotal counts award attempts by badge and outcome.
	BadgeAwardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_badge_awards_total",
		Help: "Badge award attempts by badge and outcome",
	}, []string{"badge", "outcome"})

	// BadgeEvaluationErrors counts trigger failures swallowed at the trigger boundary.
	BadgeEvaluationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_badge_evaluation_errors_total",
		Help: "Badge evaluation or award failures by badge and triggering action",
	}, []string{"badge", "action"})

	// BadgeSweepDuration records the wall time of each periodic sweep.
	BadgeSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memoria_badge_sweep_duration_seconds",
		Help:    "Duration of the periodic badge sweep",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// BadgeSweepGroups counts groups visited by the sweep by outcome.
	BadgeSweepGroups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_badge_sweep_groups_total",
		Help: "Groups visited by the periodic badge sweep",
	}, []string{"outcome"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_cache_lookups_total",
		Help: "Cache-aside lookups by key family and result",
	}, []string{"family", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memoria_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memoria_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ImageUploadsTotal counts image uploads by storage backend and outcome.
	ImageUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memoria_image_uploads_total",
		Help: "Image uploads by storage backend and outcome",
	}, []string{"backend", "outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
