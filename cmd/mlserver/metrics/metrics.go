// Package metrics provides Prometheus instrumentation for the prediction
// server.
//
// Metrics exposed:
//   - aforo_predict_seconds: Histogram of prediction handling duration, by task
//   - aforo_predictions_total: Counter of predictions by task and outcome
//   - aforo_model_loaded: Gauge per task, 1 when a model is in service
//   - aforo_model_reloads_total: Counter of reload operations
//
// All metrics are exposed via the /metrics endpoint for Prometheus scraping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the prediction server.
type Metrics struct {
	PredictSeconds   *prometheus.HistogramVec
	PredictionsTotal *prometheus.CounterVec
	ModelLoaded      *prometheus.GaugeVec
	ReloadsTotal     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PredictSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aforo_predict_seconds",
			Help:    "Time spent serving a prediction request",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),

		PredictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aforo_predictions_total",
			Help: "Total predictions served by task and outcome",
		}, []string{"task", "outcome"}),

		ModelLoaded: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aforo_model_loaded",
			Help: "Whether a model is loaded for the task (1 or 0)",
		}, []string{"task"}),

		ReloadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aforo_model_reloads_total",
			Help: "Total model reload operations",
		}),
	}
}

// RecordPrediction records one served prediction request.
func (m *Metrics) RecordPrediction(task, outcome string, seconds float64) {
	m.PredictSeconds.WithLabelValues(task).Observe(seconds)
	m.PredictionsTotal.WithLabelValues(task, outcome).Inc()
}

// SetModelLoaded sets the per-task loaded gauge.
func (m *Metrics) SetModelLoaded(task string, loaded bool) {
	v := 0.0
	if loaded {
		v = 1.0
	}
	m.ModelLoaded.WithLabelValues(task).Set(v)
}

// RecordReload increments the reload counter.
func (m *Metrics) RecordReload() {
	m.ReloadsTotal.Inc()
}
