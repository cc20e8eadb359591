package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partsearch",
			Name:      "searches_total",
			Help:      "Per-collection searches by outcome",
		},
		[]string{"collection", "outcome"}, // ok / degraded
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "partsearch",
			Name:      "search_duration_seconds",
			Help:      "Per-collection search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"collection", "mode"},
	)

	FusionFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partsearch",
			Name:      "fusion_fallbacks_total",
			Help:      "Hybrid searches that fell back to a single signal",
		},
		[]string{"collection", "reason"}, // keyword_not_ready
	)

	ContextDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partsearch",
			Name:      "context_decisions_total",
			Help:      "Conversation cache decisions per query",
		},
		[]string{"decision"}, // reuse / refine / fresh_search
	)

	FilterDropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partsearch",
			Name:      "filter_drops_total",
			Help:      "Entity filters dropped for schema mismatch",
		},
		[]string{"collection", "field"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(FusionFallbacksTotal)
	prometheus.MustRegister(ContextDecisionsTotal)
	prometheus.MustRegister(FilterDropsTotal)
	retrievalMetricsRegistered = true
}
