package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision module. Labels never carry
// outcomes: the result of an evaluation is encrypted and stays that way.
type Metrics struct {
	// Evaluations by visibility, counting only successful pipelines.
	Evaluations *prometheus.CounterVec

	// Rejected evaluations by error code.
	Rejections *prometheus.CounterVec

	// Import latency per reading.
	ImportLatency prometheus.Histogram

	// Overall pipeline latency.
	EvaluateLatency prometheus.Histogram
}

// New creates a new Metrics instance with all decision module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "restgate_decision_evaluations_total",
			Help: "Total successful evaluations by visibility",
		}, []string{"visibility"}),

		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "restgate_decision_rejections_total",
			Help: "Total rejected evaluations by error code",
		}, []string{"code"}),

		ImportLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "restgate_decision_import_duration_seconds",
			Help:    "Duration of importing one encrypted reading",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "restgate_decision_evaluate_duration_seconds",
			Help:    "Duration of the full evaluation pipeline",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementEvaluation records a successful evaluation.
func (m *Metrics) IncrementEvaluation(visibility string) {
	if m != nil {
		m.Evaluations.WithLabelValues(visibility).Inc()
	}
}

// IncrementRejection records a rejected evaluation.
func (m *Metrics) IncrementRejection(code string) {
	if m != nil {
		m.Rejections.WithLabelValues(code).Inc()
	}
}

// ObserveImportLatency records the duration of one ciphertext import.
func (m *Metrics) ObserveImportLatency(d time.Duration) {
	if m != nil {
		m.ImportLatency.Observe(d.Seconds())
	}
}

// ObserveEvaluateLatency records the total pipeline duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
