package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InscriptionsProcessed counts processed inscriptions by outcome:
	// ordinals, non-ordinals, missing, error.
	InscriptionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_inscriptions_processed_total",
			Help: "Total number of inscriptions processed",
		},
		[]string{"outcome"},
	)

	// BatchesCompleted counts finished batches by advancement policy.
	BatchesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_batches_completed_total",
			Help: "Total number of batches completed",
		},
		[]string{"policy"},
	)

	// CursorPosition tracks the global cursor.
	CursorPosition = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indexer_cursor_position",
			Help: "Global high-water-mark of processed inscription numbers",
		},
	)

	// ProviderCallDuration tracks provider call latency.
	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indexer_provider_call_seconds",
			Help:    "Provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	// ProviderCallErrors tracks provider call failures.
	ProviderCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_provider_call_errors_total",
			Help: "Total number of provider call failures",
		},
		[]string{"provider", "operation"},
	)

	// BreakerOpen reports whether a breaker is currently open (1) per service.
	BreakerOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "indexer_breaker_open",
			Help: "Circuit breaker open state per service",
		},
		[]string{"service"},
	)

	// CacheHits and CacheMisses track the classifier caches.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_cache_hits_total",
			Help: "Cache hits per cache",
		},
		[]string{"cache"},
	)
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_cache_misses_total",
			Help: "Cache misses per cache",
		},
		[]string{"cache"},
	)

	// DLQDepth tracks the dead letter queue size.
	DLQDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indexer_dlq_depth",
			Help: "Number of entries in the dead letter queue",
		},
	)
)
