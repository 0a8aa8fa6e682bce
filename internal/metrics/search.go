package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Engine call outcomes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Search Prometheus metrics.
var (
	SearchEngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_engine_requests_total",
			Help:      "Total number of search engine calls",
		},
		[]string{"engine", "operation", "status"},
	)

	SearchEngineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_engine_duration_seconds",
			Help:      "Search engine call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"engine", "operation"},
	)

	SearchDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_degraded_total",
			Help:      "Requests answered in degraded mode after an engine failure",
		},
		[]string{"operation"}, // "search" / "autocomplete"
	)

	AutocompleteShortCircuitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "autocomplete_short_circuit_total",
			Help:      "Autocomplete requests answered without calling the engine",
		},
	)

	PricingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pricing_cache_total",
			Help:      "Pricing lookup cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	IndexedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "indexed_documents_total",
			Help:      "Documents pushed to the search engine",
		},
		[]string{"engine", "status"},
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers the search metrics with the default registry. Called from main.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(
			SearchEngineRequestsTotal,
			SearchEngineDuration,
			SearchDegradedTotal,
			AutocompleteShortCircuitTotal,
			PricingCacheTotal,
			IndexedDocumentsTotal,
		)
	})
}
