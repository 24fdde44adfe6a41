// Package metrics exposes the Prometheus metrics of the movie search client.
// All metrics are defined in their respective packages (client, cache, search)
// to maintain modularity and avoid circular dependencies.
//
// This package provides the HTTP handler and a reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source Handler serves from.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - movie_search_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - movie_search_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - movie_search_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//   - movie_search_shared_fetches_total (Counter): Searches answered by an identical in-flight request
//
// Retry Metrics (pkg/client):
//   - movie_search_retries_total{error_class} (Counter): Retry attempts by error class
//   - movie_search_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - movie_search_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - movie_search_rate_limit_wait_seconds (Histogram): Time requests waited for pacing or cooldown
//   - movie_search_rate_limit_cooldowns_total (Counter): Cooldowns started by 429 responses
//
// Cache Metrics (pkg/cache):
//   - movie_search_cache_hits_total{layer} (Counter): Cache hits by layer (redis, memory)
//   - movie_search_cache_misses_total{layer} (Counter): Cache misses by layer
//   - movie_search_cache_errors_total{operation} (Counter): Cache operation errors
//
// Search Metrics (pkg/search):
//   - movie_search_generations_issued_total (Counter): Searches issued
//   - movie_search_stale_discards_total{outcome} (Counter): Superseded outcomes dropped (success, error)
//   - movie_search_inflight (Gauge): Searches not yet completed
//   - movie_search_duration_seconds{outcome} (Histogram): Issue-to-completion time
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(movie_search_cache_hits_total[5m])) /
//   (sum(rate(movie_search_cache_hits_total[5m])) + sum(rate(movie_search_cache_misses_total[5m])))
//
//   # Share of searches superseded before completing
//   rate(movie_search_stale_discards_total[5m]) / rate(movie_search_generations_issued_total[5m])
//
//   # Request Error Rate
//   rate(movie_search_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(movie_search_request_duration_seconds_bucket[5m]))
