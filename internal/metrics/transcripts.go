// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics defines the Prometheus metrics exported by transcriptd.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transcriptOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcriptd_transcript_operations_total",
		Help: "Transcript editing operations by flow and outcome",
	}, []string{"flow", "outcome"}) // outcome=success|validation|busy|stale|transport|closed|error

	staleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcriptd_stale_responses_total",
		Help: "Asynchronous upload results discarded because the slot changed in flight",
	}, []string{"flow"})

	saveBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcriptd_save_blocked_total",
		Help: "Save attempts rejected because a transcript slot had no completed upload",
	})

	sessionsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcriptd_sessions_saved_total",
		Help: "Editing sessions flushed to the persisted field",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcriptd_active_sessions",
		Help: "Editing sessions currently open",
	})

	uploadRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcriptd_upload_rejected_total",
		Help: "Candidate files rejected by upload validation",
	}, []string{"context"})

	platformFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transcriptd_platform_fetch_duration_seconds",
		Help:    "Latency of video platform requests",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider", "operation", "outcome"})

	indexCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcriptd_index_cache_lookups_total",
		Help: "Platform index cache lookups by result",
	}, []string{"result"}) // result=hit|miss|error
)

// RecordTranscriptOperation counts one editing operation.
func RecordTranscriptOperation(flow, outcome string) {
	transcriptOperations.WithLabelValues(flow, outcome).Inc()
}

// RecordStaleResponse counts an upload result discarded after the slot changed.
func RecordStaleResponse(flow string) {
	staleResponses.WithLabelValues(flow).Inc()
}

// RecordSaveBlocked counts a save rejected by the save gate.
func RecordSaveBlocked() {
	saveBlocked.Inc()
}

// RecordSessionSaved counts a successful flush.
func RecordSessionSaved() {
	sessionsSaved.Inc()
}

// SetActiveSessions publishes the number of open editing sessions.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// RecordUploadRejected counts a candidate file that failed validation.
func RecordUploadRejected(context string) {
	uploadRejected.WithLabelValues(context).Inc()
}

// ObservePlatformFetch records the latency of one platform call.
func ObservePlatformFetch(provider, operation string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	platformFetchDuration.WithLabelValues(provider, operation, outcome).Observe(d.Seconds())
}

// RecordIndexCacheLookup counts a platform index cache lookup.
func RecordIndexCacheLookup(result string) {
	indexCacheLookups.WithLabelValues(result).Inc()
}
