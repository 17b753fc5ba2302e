// Package metrics exposes the Prometheus metrics of the Sight client.
// Metrics are registered with promauto in the packages that record them
// (client, cache, pagination, session); this package serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer used by all Sight metrics.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Catalogue lists every metric family recorded by the Sight packages.
var Catalogue = []string{
	// pkg/client
	"sight_requests_total",
	"sight_request_duration_seconds",
	"sight_errors_total",

	// pkg/pagination
	"sight_pagination_probes_total",
	"sight_pagination_pages_fetched_total",
	"sight_pagination_page_errors_total",
	"sight_pagination_pages_in_flight",
	"sight_pagination_fetch_duration_seconds",

	// pkg/cache
	"sight_cache_hits_total",
	"sight_cache_misses_total",
	"sight_cache_size_bytes",
	"sight_cache_not_modified_total",
	"sight_cache_errors_total",

	// pkg/session
	"sight_session_store_errors_total",
}

// Example queries:
//
//	# Cache hit rate
//	sum(rate(sight_cache_hits_total[5m])) /
//	(sum(rate(sight_cache_hits_total[5m])) + sum(rate(sight_cache_misses_total[5m])))
//
//	# P95 request latency per endpoint
//	histogram_quantile(0.95, sum by (le, endpoint) (rate(sight_request_duration_seconds_bucket[5m])))
//
//	# Pages fetched per aggregation
//	rate(sight_pagination_pages_fetched_total[5m]) / rate(sight_pagination_fetch_duration_seconds_count[5m])
