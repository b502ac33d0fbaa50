// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confessional_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records store operation latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "confessional_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ReactionsTotal counts reaction toggles by target type and resulting action.
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confessional_reactions_total",
		Help: "Total reaction toggles by target type and action",
	}, []string{"target_type", "action"})

	// ModerationActionsTotal counts completed moderation actions by type.
	ModerationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confessional_moderation_actions_total",
		Help: "Total moderation actions by type",
	}, []string{"action"})

	// CascadeRowsDeleted counts rows removed by moderation cascades by kind.
	CascadeRowsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confessional_cascade_rows_deleted_total",
		Help: "Rows removed by moderation cascades",
	}, []string{"kind"})

	// ReportsTotal counts accepted reports by target type.
	ReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confessional_reports_total",
		Help: "Total accepted reports by target type",
	}, []string{"target_type"})

	// ReportEscalationsTotal counts threshold crossings by target type.
	ReportEscalationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confessional_report_escalations_total",
		Help: "Total report threshold escalations by target type",
	}, []string{"target_type"})

	// StoreErrorsTotal counts operations that failed with a store error.
	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confessional_store_errors_total",
		Help: "Total operations aborted by a storage failure",
	}, []string{"operation"})

	// CommentPageCacheTotal counts comment page cache lookups by result.
	CommentPageCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confessional_comment_page_cache_total",
		Help: "Comment page cache lookups by result",
	}, []string{"result"})

	// NotificationFailuresTotal counts outbound notifications that could not be published.
	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confessional_notification_failures_total",
		Help: "Outbound notifications that failed to publish",
	}, []string{"kind"})
)

// TrackQuery returns a function that records operation latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordCascade adds the per-kind row counts of a finished cascade.
func RecordCascade(action string, rows map[string]int64) {
	ModerationActionsTotal.WithLabelValues(action).Inc()
	for kind, n := range rows {
		if n > 0 {
			CascadeRowsDeleted.WithLabelValues(kind).Add(float64(n))
		}
	}
}
