// Package metrics provides the centralized Prometheus metrics registry
// for the connector foundation. All metrics are defined in their
// respective packages (client, cache, ratelimit) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the connector
// packages. All metrics are automatically registered via promauto in
// their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - connector_rate_limit_throttles_total{limiter} (Counter): Acquire calls that had to wait
//   - connector_rate_limit_wait_seconds{limiter} (Histogram): Time spent waiting for a slot
//
// Cache Metrics (pkg/cache):
//   - connector_cache_hits_total (Counter): Cache hits
//   - connector_cache_misses_total (Counter): Cache misses
//   - connector_cache_entries (Gauge): Entries currently stored
//   - connector_304_responses_total (Counter): 304 Not Modified responses
//
// Request Metrics (pkg/client):
//   - connector_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - connector_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - connector_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - connector_retries_total{reason} (Counter): Retry attempts by reason (transport, rate_limit)
//   - connector_retry_backoff_seconds{reason} (Histogram): Backoff duration by reason
//   - connector_retries_exhausted_total (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(connector_cache_hits_total[5m])) /
//   (sum(rate(connector_cache_hits_total[5m])) + sum(rate(connector_cache_misses_total[5m])))
//
//   # Share of requests that had to wait for the limiter
//   rate(connector_rate_limit_throttles_total[5m]) / rate(connector_requests_total[5m])
//
//   # Request Error Rate
//   rate(connector_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(connector_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(connector_304_responses_total[5m]) / rate(connector_requests_total[5m])
