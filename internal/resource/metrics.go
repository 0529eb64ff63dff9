package resource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_cache_lookups_total",
			Help: "Total number of cache lookups by result",
		},
		[]string{"result"},
	)

	cacheLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_cache_loads_total",
			Help: "Total number of loader invocations by outcome",
		},
		[]string{"outcome"},
	)

	cacheLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resource_cache_load_duration_seconds",
			Help:    "Histogram of loader durations including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	cacheInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_cache_invalidations_total",
			Help: "Total number of entries evicted by invalidation",
		},
	)

	cacheStaleDiscardsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resource_cache_stale_discards_total",
			Help: "Total number of loader results dropped after invalidation or reset",
		},
	)

	cacheInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resource_cache_inflight_requests",
			Help: "Number of loader calls currently in flight",
		},
	)
)
