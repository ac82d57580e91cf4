package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Analyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prelex_analyses_total",
			Help: "Document analyses by outcome",
		},
		[]string{"outcome"},
	)

	StageMethods = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prelex_stage_method_total",
			Help: "Method used per pipeline stage",
		},
		[]string{"stage", "method"},
	)

	DetectedRisks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prelex_detected_risks_total",
			Help: "Risks reported, by severity",
		},
		[]string{"severity"},
	)

	UploadRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prelex_upload_rejections_total",
			Help: "Uploads rejected before analysis",
		},
		[]string{"reason"},
	)

	GenerativeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prelex_generative_calls_total",
			Help: "Calls to the generative backend",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prelex_analysis_duration_seconds",
			Help:    "Time from upload to finished report",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)
