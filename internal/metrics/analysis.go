package metrics

import "github.com/prometheus/client_golang/prometheus"

// Analysis engine Prometheus metrics.
var (
	ComparisonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sbomdex",
			Name:      "comparisons_total",
			Help:      "Total number of SBOM comparisons",
		},
		[]string{"kind"}, // "components" / "terms"
	)

	ComparisonCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sbomdex",
			Name:      "comparison_cache_total",
			Help:      "Comparison cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	GeneratorRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sbomdex",
			Name:      "generator_runs_total",
			Help:      "Total syft generator subprocess runs",
		},
		[]string{"status"}, // "ok" / "error"
	)

	GeneratorRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sbomdex",
			Name:      "generator_run_duration_seconds",
			Help:      "Syft generator subprocess duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

var analysisMetricsRegistered bool

// RegisterAnalysisMetrics registers the analysis metrics. Must be called once from main.
func RegisterAnalysisMetrics() {
	if analysisMetricsRegistered {
		return
	}
	prometheus.MustRegister(ComparisonsTotal)
	prometheus.MustRegister(ComparisonCacheTotal)
	prometheus.MustRegister(GeneratorRunsTotal)
	prometheus.MustRegister(GeneratorRunDuration)
	analysisMetricsRegistered = true
}
