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
		Name: "editorial_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by cache name and result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "editorial_cache_lookups_total",
		Help: "Cache-aside lookups by cache and result",
	}, []string{"cache", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "editorial_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PostsPublished counts draft to published transitions.
	PostsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "editorial_posts_published_total",
		Help: "Total number of posts moved from draft to published",
	})

	// CommentsSubmitted counts reader comments accepted for moderation.
	CommentsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "editorial_comments_submitted_total",
		Help: "Total number of comments submitted",
	})

	// ContestSubmissions counts photo contest submissions by outcome (accepted, rejected).
	ContestSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "editorial_contest_submissions_total",
		Help: "Photo contest submissions by outcome",
	}, []string{"outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordCacheLookup increments the hit or miss counter for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}
