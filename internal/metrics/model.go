package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model invocation Prometheus metrics.
var (
	ModelInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sibyl",
			Name:      "model_invocations_total",
			Help:      "Total number of predictor and explainer invocations",
		},
		[]string{"model", "operation", "status"},
	)

	ModelInvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sibyl",
			Name:      "model_invocation_duration_seconds",
			Help:      "Predictor and explainer invocation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"model", "operation"},
	)

	ModelCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sibyl",
			Name:      "model_cache_total",
			Help:      "Decoded model cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ModelDecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sibyl",
			Name:      "model_decode_errors_total",
			Help:      "Total failures decoding stored predictor or explainer blobs",
		},
		[]string{"component"}, // "predictor" / "explainer"
	)
)

var modelMetricsRegistered bool

// RegisterModelMetrics registers Prometheus model metrics. Must be called once from main.
func RegisterModelMetrics() {
	if modelMetricsRegistered {
		return
	}
	prometheus.MustRegister(ModelInvocationsTotal)
	prometheus.MustRegister(ModelInvocationDuration)
	prometheus.MustRegister(ModelCacheTotal)
	prometheus.MustRegister(ModelDecodeErrorsTotal)
	modelMetricsRegistered = true
}
