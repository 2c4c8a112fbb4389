package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics: classification outcomes and retrieval stages.
var (
	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poshan",
			Name:      "classifications_total",
			Help:      "Classification verdicts by category",
		},
		[]string{"category", "short_circuit"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "poshan",
			Name:      "retrieval_stage_duration_seconds",
			Help:      "Retrieval stage duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage", "status"},
	)

	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poshan",
			Name:      "retrieval_stage_failures_total",
			Help:      "Retrieval stages that degraded to empty results",
		},
		[]string{"stage", "reason"},
	)

	RetrievalCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "poshan",
			Name:      "retrieval_candidates",
			Help:      "Merged candidate count per retrieval call",
			Buckets:   []float64{0, 5, 10, 20, 40, 80, 160},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(ClassificationsTotal)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(StageFailuresTotal)
	prometheus.MustRegister(RetrievalCandidates)
	pipelineMetricsRegistered = true
}
