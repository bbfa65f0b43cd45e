package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks lookups that found an entry (fresh or stale).
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	// CacheMisses tracks cache misses.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// CacheEntries tracks the current number of cached responses.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "connector_cache_entries",
			Help: "Current number of cached responses",
		},
	)

	// NotModifiedResponses tracks successful revalidations.
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_304_responses_total",
			Help: "Total number of 304 Not Modified revalidations",
		},
	)
)
