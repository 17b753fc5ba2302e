package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts entries served from Redis.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sight_cache_hits_total",
		Help: "Total number of Sight response cache hits",
	})

	// CacheMisses counts lookups that found no usable entry.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sight_cache_misses_total",
		Help: "Total number of Sight response cache misses",
	})

	// CacheSize tracks the bytes written to Redis.
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sight_cache_size_bytes",
		Help: "Bytes written to the Sight response cache",
	})

	// NotModified counts 304 answers to conditional requests.
	NotModified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sight_cache_not_modified_total",
		Help: "Total number of 304 Not Modified responses served from cache",
	})

	// CacheErrors counts Redis failures by operation.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sight_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"})
)
