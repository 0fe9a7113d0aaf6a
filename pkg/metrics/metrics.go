// Package metrics provides the centralized Prometheus metrics registry for
// the Canvas telemetry pipeline. All metrics are defined in their respective
// packages (canvas, ratelimit, consolidate) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pipeline.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - canvas_rate_limit_remaining (Gauge): Remaining quota in the Canvas per-token bucket
//   - canvas_rate_limit_blocks_total (Counter): Requests blocked due to critical quota
//   - canvas_rate_limit_throttles_total (Counter): Requests throttled due to low quota
//
// Request Metrics (pkg/canvas):
//   - canvas_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - canvas_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - canvas_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/canvas):
//   - canvas_retries_total{error_class} (Counter): Retry attempts by error class
//   - canvas_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - canvas_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Consolidation Metrics (pkg/consolidate):
//   - alttab_students_processed_total{status} (Counter): Students by outcome (ok, failed, no_submissions)
//   - alttab_submissions_fetched_total (Counter): Quiz submissions fetched
//   - alttab_events_collected_total (Counter): Raw submission events collected
//   - alttab_duplicate_events_total (Counter): Events dropped by deduplication
//   - alttab_consolidation_seconds (Histogram): Duration of full consolidation runs
//
// Example Prometheus Queries:
//
//   # Quota Headroom
//   canvas_rate_limit_remaining < 150
//
//   # Request Error Rate
//   rate(canvas_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(canvas_request_duration_seconds_bucket[5m]))
//
//   # Duplicate Event Share
//   rate(alttab_duplicate_events_total[5m]) / rate(alttab_events_collected_total[5m])
//
//   # Student Failure Rate
//   rate(alttab_students_processed_total{status="failed"}[5m]) /
//   sum(rate(alttab_students_processed_total[5m]))
