// Package metrics provides Prometheus metrics instrumentation, retargeted
// from the teacher's HTTP/tenant counters at the meeting domain: turns,
// rounds, generation, broadcast, and retry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal tracks every execute_turn call, by mode and outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_turns_total",
			Help: "Total turns executed",
		},
		[]string{"mode", "outcome"},
	)

	// TurnFailuresTotal tracks turn_failed events by apperr classification.
	TurnFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_turn_failures_total",
			Help: "Total turn failures by error classification",
		},
		[]string{"classification"},
	)

	// TurnDuration tracks how long one execute_turn call takes, including
	// any retries.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meeting_turn_duration_seconds",
			Help:    "Turn execution duration in seconds",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "mode"},
	)

	// RoundsCompletedTotal tracks round advancement (§4.6).
	RoundsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_rounds_completed_total",
			Help: "Total rounds completed",
		},
		[]string{},
	)

	// MinutesGeneratedTotal tracks minutes generation (§4.12).
	MinutesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_minutes_generated_total",
			Help: "Total minutes versions generated",
		},
		[]string{"source"}, // "ai" or "manual"
	)

	// MindMapsGeneratedTotal tracks mind-map generation (§4.13).
	MindMapsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_mind_maps_generated_total",
			Help: "Total mind maps generated",
		},
		[]string{"source"},
	)

	// BroadcastSubscriberDropsTotal tracks the hub's drop-and-evict policy
	// (§4.10, §9) firing against a slow subscriber.
	BroadcastSubscriberDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meeting_broadcast_subscriber_drops_total",
			Help: "Total subscribers evicted for falling behind",
		},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// RetryAttemptsTotal tracks §4.2's retry loop firing, by provider.
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_llm_retry_attempts_total",
			Help: "Total retry attempts by provider",
		},
		[]string{"provider"},
	)

	// AuditEventsTotal tracks events mirrored to the optional durable audit
	// log (internal/audit).
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_audit_events_total",
			Help: "Total meeting lifecycle events mirrored to the audit log",
		},
		[]string{"event"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTurn records a completed execute_turn call.
func RecordTurn(provider, mode, outcome string, duration float64) {
	TurnsTotal.WithLabelValues(mode, outcome).Inc()
	TurnDuration.WithLabelValues(provider, mode).Observe(duration)
}

// RecordTurnFailure records a turn_failed event by its apperr classification.
func RecordTurnFailure(classification string) {
	TurnFailuresTotal.WithLabelValues(classification).Inc()
}

// RecordRoundCompleted records one round boundary crossed (§4.6).
func RecordRoundCompleted() {
	RoundsCompletedTotal.WithLabelValues().Inc()
}

// RecordMinutesGenerated records one minutes version created.
func RecordMinutesGenerated(source string) {
	MinutesGeneratedTotal.WithLabelValues(source).Inc()
}

// RecordMindMapGenerated records one mind map created.
func RecordMindMapGenerated(source string) {
	MindMapsGeneratedTotal.WithLabelValues(source).Inc()
}

// RecordBroadcastDrop records the hub evicting one lagging subscriber.
func RecordBroadcastDrop() {
	BroadcastSubscriberDropsTotal.Inc()
}

// RecordRetryAttempt records one retry firing for a provider.
func RecordRetryAttempt(provider string) {
	RetryAttemptsTotal.WithLabelValues(provider).Inc()
}

// RecordAuditEvent records one lifecycle event mirrored to the audit log.
func RecordAuditEvent(event string) {
	AuditEventsTotal.WithLabelValues(event).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
