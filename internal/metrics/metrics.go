package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ttt_batches_started_total",
		Help: "Total number of batches started",
	})

	BatchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ttt_batches_completed_total",
		Help: "Total number of batches completed",
	})

	ItemsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ttt_items_completed_total",
		Help: "Total number of items processed successfully",
	})

	ItemsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ttt_items_failed_total",
		Help: "Total number of items that exhausted their retry budget",
	})

	StageRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ttt_stage_retries_total",
		Help: "Total number of stage call retries",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ttt_stage_duration_seconds",
		Help:    "Stage call duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ttt_upload_bytes_total",
		Help: "Total bytes uploaded to the hosting backend",
	})
)
