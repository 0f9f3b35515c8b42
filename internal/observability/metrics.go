package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// ReportsCreated counts reports created by object type.
	ReportsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_reports_created_total",
		Help: "Total number of reports created by object type",
	}, []string{"object_type"})

	// ModerationActions counts moderation actions by action type.
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_moderation_actions_total",
		Help: "Total number of moderation actions by action type",
	}, []string{"action_type"})

	// AppealsProcessed counts processed appeals by outcome (approved, rejected).
	AppealsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_appeals_processed_total",
		Help: "Total number of appeals processed by outcome",
	}, []string{"outcome"})

	// NotificationsDispatched counts notifications created by kind.
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_notifications_dispatched_total",
		Help: "Total number of notifications dispatched by kind",
	}, []string{"kind"})

	// NotificationsDropped counts notifications silently dropped by reason
	// (duplicate, preference_disabled, self).
	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_notifications_dropped_total",
		Help: "Total number of notifications dropped by reason",
	}, []string{"reason"})

	// EmailsSent counts outbound moderation emails by template.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_emails_sent_total",
		Help: "Total number of moderation emails sent by template",
	}, []string{"template"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stride_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stride_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
