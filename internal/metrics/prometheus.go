package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadingsIngested counts telemetry readings accepted into the store
	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readings_ingested_total",
			Help: "Total number of telemetry readings ingested",
		},
		[]string{"sensor_type", "source"},
	)

	// AnomaliesDetected counts anomalies emitted by the detector
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anomalies_detected_total",
			Help: "Total number of anomalies detected",
		},
		[]string{"severity", "sensor_type"},
	)

	// ScoringRuns counts per-asset scoring runs by outcome
	ScoringRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_runs_total",
			Help: "Total number of per-asset scoring runs",
		},
		[]string{"outcome"},
	)

	// ScoringDuration measures the synchronous scoring pipeline latency
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Duration of a single asset scoring run in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// PredictionsCreated counts newly created predictions
	PredictionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_created_total",
			Help: "Total number of predictions created",
		},
		[]string{"prediction_type", "risk_level"},
	)

	// OpenPredictions tracks currently open predictions by risk level
	OpenPredictions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "open_predictions",
			Help: "Number of currently open predictions",
		},
		[]string{"risk_level"},
	)

	// LifecycleTransitions counts prediction state changes
	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_transitions_total",
			Help: "Total number of prediction lifecycle transitions",
		},
		[]string{"from", "to"},
	)

	// ActiveAssets tracks assets with at least one telemetry stream
	ActiveAssets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_assets",
			Help: "Number of assets with telemetry streams",
		},
	)

	// CacheOperations counts Redis cache operations by outcome
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "status"},
	)
)
