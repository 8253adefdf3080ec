// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SnapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firesafety_snapshot_saves_total",
		Help: "Full-snapshot writes to the local slot.",
	}, []string{"result"})

	SnapshotBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firesafety_snapshot_bytes",
		Help: "Size of the last serialized snapshot.",
	})

	SnapshotVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firesafety_snapshot_version",
		Help: "Monotonic version of the committed snapshot.",
	})

	Merges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firesafety_imports_total",
		Help: "Imports merged into the local snapshot, by source format.",
	}, []string{"format"})

	BackupPushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firesafety_backup_pushes_total",
		Help: "Backup pushes by adapter and outcome.",
	}, []string{"adapter", "outcome"})

	BackupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "firesafety_backup_push_seconds",
		Help:    "Backup push latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"adapter"})

	AuditPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firesafety_audit_entries_purged_total",
		Help: "Audit entries removed by admin purge or single delete.",
	})

	AnalysisFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firesafety_analysis_fallbacks_total",
		Help: "Analysis calls answered with the canned result.",
	}, []string{"kind"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
