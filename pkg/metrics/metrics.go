// Package metrics provides the central Prometheus registry reference for the
// gamepass manager. All metrics are defined in their owning packages (roblox,
// batch, cache) to maintain modularity and avoid circular dependencies.
//
// This package documents the full metric inventory.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the gamepass manager.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/roblox):
//   - roblox_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - roblox_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - roblox_errors_total{class} (Counter): Errors by class (client, server, network)
//   - roblox_gamepass_pages_total (Counter): Gamepass list pages fetched
//
// Batch Metrics (pkg/batch):
//   - batch_runs_total{workflow} (Counter): Workflow runs by workflow (create, remove_all)
//   - batch_items_total{workflow, outcome} (Counter): Items processed by outcome
//     (success, failure, skipped)
//   - batch_limit_hits_total (Counter): Create runs aborted by the gamepass limit
//   - batch_run_duration_seconds{workflow} (Histogram): End-to-end run duration
//
// Cache Metrics (pkg/cache):
//   - universe_cache_hits_total (Counter): Universe resolution cache hits
//   - universe_cache_misses_total (Counter): Universe resolution cache misses
//   - universe_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Item failure rate per workflow
//   sum(rate(batch_items_total{outcome="failure"}[5m])) by (workflow) /
//   sum(rate(batch_items_total[5m])) by (workflow)
//
//   # Limit hits
//   increase(batch_limit_hits_total[1h])
//
//   # P95 API latency
//   histogram_quantile(0.95, rate(roblox_request_duration_seconds_bucket[5m]))
//
//   # Cache hit rate
//   rate(universe_cache_hits_total[5m]) /
//   (rate(universe_cache_hits_total[5m]) + rate(universe_cache_misses_total[5m]))
