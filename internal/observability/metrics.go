package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kolboard_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by key family and outcome (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kolboard_cache_lookups_total",
		Help: "Cache lookups by key family and outcome",
	}, []string{"family", "outcome"})

	// UpstreamRequestDuration records latency of calls to the upstream backend.
	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kolboard_upstream_request_duration_seconds",
		Help:    "Upstream backend request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kolboard_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ScheduledJobRuns counts scheduler job executions by job and result.
	ScheduledJobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kolboard_scheduled_job_runs_total",
		Help: "Scheduled job executions by job name and result",
	}, []string{"job", "result"})

	// AvatarUploads counts avatar upload attempts by result.
	AvatarUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kolboard_avatar_uploads_total",
		Help: "Avatar upload attempts by result",
	}, []string{"result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
