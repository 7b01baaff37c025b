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
		Name: "yatube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PageCacheRequests counts page cache lookups by result (hit, miss, bypass).
	PageCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_requests_total",
		Help: "Page cache lookups by result",
	}, []string{"result"})

	// PageCacheInvalidations counts page cache generation bumps.
	PageCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_page_cache_invalidations_total",
		Help: "Total number of page cache invalidations",
	})

	// ContentEvents counts domain writes by kind (post_created, post_edited, post_deleted, comment_created).
	ContentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_content_events_total",
		Help: "Total number of content writes by kind",
	}, []string{"kind"})

	// FollowEvents counts follow graph changes by action and outcome.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follow_events_total",
		Help: "Follow and unfollow requests by action and outcome",
	}, []string{"action", "outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
