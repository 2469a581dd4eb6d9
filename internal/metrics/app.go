// Package metrics emits application counters and gauges through the global
// telemetry system. All emitters are safe to call before InitMetrics.
package metrics

import (
	"time"

	"github.com/canvashq/canvas/internal/observability"
)

// Metric names follow Prometheus conventions.
var (
	ResearchRunsTotal    = "research_runs_total"
	ResearchDuration     = "research_duration_ms"
	ThrottleWaitDuration = "throttle_wait_ms"
	ThrottleQueueDepth   = "throttle_queue_depth"
	ThrottleUtilization  = "throttle_utilization_percent"
	CacheEventsTotal     = "response_cache_events_total"

	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordResearch records one research run with its outcome labels.
func RecordResearch(depth string, status string, fromCache bool, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	cached := "false"
	if fromCache {
		cached = "true"
	}

	_ = observability.TelemetrySystem.Counter(
		ResearchRunsTotal,
		1,
		map[string]string{
			"depth":      depth,
			"status":     status,
			"from_cache": cached,
		},
	)
	_ = observability.TelemetrySystem.Histogram(
		ResearchDuration,
		duration,
		map[string]string{"depth": depth},
	)
}

// RecordThrottleWait records how long a caller waited for a throttle slot.
func RecordThrottleWait(apiName string, wait time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Histogram(
		ThrottleWaitDuration,
		wait,
		map[string]string{"api": apiName},
	)
}

// SetThrottleGauges publishes the queue depth and window utilization for one
// throttle bucket.
func SetThrottleGauges(apiName string, queueLength int, utilizationPercent float64) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Gauge(
		ThrottleQueueDepth,
		float64(queueLength),
		map[string]string{"api": apiName},
	)
	_ = observability.TelemetrySystem.Gauge(
		ThrottleUtilization,
		utilizationPercent,
		map[string]string{"api": apiName},
	)
}

// RecordCacheEvent records a response cache hit or miss for a namespace.
func RecordCacheEvent(namespace string, hit bool) {
	if observability.TelemetrySystem == nil {
		return
	}

	event := "miss"
	if hit {
		event = "hit"
	}
	_ = observability.TelemetrySystem.Counter(
		CacheEventsTotal,
		1,
		map[string]string{
			"namespace": namespace,
			"event":     event,
		},
	)
}

// SetServerStartTime records the server start time as a Unix timestamp.
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Gauge(ServerStartTime, float64(timestamp), nil)
}

// SetServerUptime records the server uptime in seconds.
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Gauge(ServerUptime, float64(seconds), nil)
}
