// Package metrics provides Prometheus metrics collection for the majority-vote ensemble.
// It defines and manages the training, prediction and run metrics that are exposed via
// the Prometheus metrics endpoint when votectl runs in serve mode.
//
// The package includes metrics for ensemble fits, per-algorithm weights and latencies,
// prediction volume, evaluation accuracy and stored runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ensemble.
type Metrics struct {
	// Training metrics
	EnsembleFits        prometheus.Counter       // Successful ensemble fits
	EnsembleFitFailures *prometheus.CounterVec   // Base learner fit failures by algorithm
	EnsembleFitDuration *prometheus.HistogramVec // Base learner fit and cross-validation time
	EnsembleModelWeight *prometheus.GaugeVec     // Current vote weight by algorithm

	// Prediction metrics
	EnsemblePredictions     prometheus.Counter   // Rows predicted
	EnsemblePredictDuration prometheus.Histogram // Predict call latency
	EnsembleAccuracy        prometheus.Histogram // Accuracy of Score calls

	// Evaluation metrics
	EvaluationAccuracy *prometheus.GaugeVec // Accuracy of the last run by split

	// Run metrics
	DatasetRows prometheus.Gauge   // Rows in the last loaded dataset
	RunsStored  prometheus.Counter // Run records persisted
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		EnsembleFits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ensemble_fits_total",
			Help: "Total number of successful ensemble fits",
		}),
		EnsembleFitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ensemble_fit_failures_total",
			Help: "Total number of base learner fit failures",
		}, []string{"algorithm"}),
		EnsembleFitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ensemble_fit_duration_seconds",
			Help:    "Base learner fit duration in seconds, including cross-validation",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"algorithm"}),
		EnsembleModelWeight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ensemble_model_weight",
			Help: "Current vote weight of each base learner",
		}, []string{"algorithm"}),
		EnsemblePredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ensemble_predictions_total",
			Help: "Total number of rows predicted by the ensemble",
		}),
		EnsemblePredictDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ensemble_predict_duration_seconds",
			Help:    "Ensemble predict latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		EnsembleAccuracy: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ensemble_accuracy",
			Help:    "Ensemble accuracy on scored data",
			Buckets: []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
		}),
		EvaluationAccuracy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ensemble_evaluation_accuracy",
			Help: "Accuracy of the last evaluated run by data split",
		}, []string{"split"}),
		DatasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Number of rows in the last loaded dataset",
		}),
		RunsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "runs_stored_total",
			Help: "Total number of run records persisted",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
