package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineOutcomesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webhook_pipeline",
			Name:      "invocations_total",
			Help:      "Total pipeline invocations by terminal state.",
		},
		[]string{"terminal_state"}, // e.g. "complete", "validation_failed", "error_dispatch", "fatal"
	)

	pipelineStageDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webhook_pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"}, // "directory_lookup", "document_locate", "document_fetch", "dispatch", "error_dispatch"
	)
)
