// Path: internal/metrics/metrics.go

// Package metrics registers the Prometheus collectors of the sync pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchAttempts counts upstream GET attempts by outcome: success, failure, rejected.
	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranksync_fetch_attempts_total",
			Help: "Upstream fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// FallbackUsed counts fetches served from the fallback file.
	FallbackUsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranksync_fallback_used_total",
			Help: "Fetches that degraded to the fallback file",
		},
	)

	// FetchDuration observes single-attempt latency.
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranksync_fetch_duration_seconds",
			Help:    "Duration of a single upstream GET attempt",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Tasks counts fetch tasks by status: succeeded, failed.
	Tasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranksync_tasks_total",
			Help: "Fetch tasks by final status",
		},
		[]string{"status"},
	)

	// TasksInFlight is the number of tasks currently held by scheduler workers.
	TasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ranksync_tasks_in_flight",
			Help: "Fetch tasks currently running",
		},
	)

	// LedgerAppended counts ledger lines written.
	LedgerAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranksync_ledger_appended_total",
			Help: "History ledger lines appended",
		},
	)

	// ShardsWritten counts JSON files written.
	ShardsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranksync_shard_files_written_total",
			Help: "Dataset and aggregate files written",
		},
	)

	// RunDuration observes whole-run latency.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranksync_run_duration_seconds",
			Help:    "Duration of a sync run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// LastSuccess is the unix time of the last run that wrote data.
	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ranksync_last_success_timestamp",
			Help: "Unix timestamp of the last run that persisted datasets",
		},
	)
)
