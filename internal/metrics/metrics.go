// Package metrics defines the prometheus instrumentation for the scan
// pipeline, validators and background jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan pipeline metrics
var (
	// ScansTotal tracks completed scans by status.
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scans_total",
			Help: "Total number of scans by terminal status",
		},
		[]string{"status", "kind"},
	)

	// ScanDuration tracks scan execution duration.
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_duration_seconds",
			Help:    "Scan execution duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	// ScanQueueDepth tracks requests waiting for a queue slot.
	ScanQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scan_queue_depth",
			Help: "Number of scan requests waiting in the queue",
		},
	)

	// ScansInFlight tracks scans currently executing.
	ScansInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scans_in_flight",
			Help: "Number of scans currently executing",
		},
	)

	// ScanRejectionsTotal tracks per-repository cap rejections.
	ScanRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scan_rejections_total",
			Help: "Total scan requests rejected by the per-repository cap",
		},
	)

	// FindingsConfirmedTotal tracks persisted findings by severity and source.
	FindingsConfirmedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "findings_confirmed_total",
			Help: "Total confirmed findings by severity and validation source",
		},
		[]string{"severity", "source"},
	)
)

// Validator metrics
var (
	// AIValidationsTotal tracks AI validator calls by outcome shape.
	AIValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_validations_total",
			Help: "Total AI validator calls by response shape",
		},
		[]string{"shape"},
	)

	// ShannonRequestsTotal tracks exploit-validator calls by outcome.
	ShannonRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shannon_requests_total",
			Help: "Total exploit-validator requests by outcome",
		},
		[]string{"outcome"},
	)
)

// Background job metrics
var (
	// TaskDuration tracks asynq task handling duration by task type.
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_duration_seconds",
			Help:    "Background task handling duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"task"},
	)

	// TaskFailuresTotal tracks asynq task failures by task type.
	TaskFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_failures_total",
			Help: "Total background task failures by task type",
		},
		[]string{"task"},
	)

	// RadarDecayedTotal tracks radar state rows decayed by the sweep.
	RadarDecayedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "radar_decayed_total",
			Help: "Total radar state rows decayed by the maintenance sweep",
		},
	)
)
