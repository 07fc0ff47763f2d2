package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reconciliation Prometheus metrics.
var (
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "sync_runs_total",
			Help:      "Total reconciliation cycles by outcome",
		},
		[]string{"result"}, // "ok" / "aborted" / "rejected"
	)

	SyncDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "sync_documents_total",
			Help:      "Documents touched by reconciliation",
		},
		[]string{"op"}, // "upserted" / "skipped" / "deleted" / "failed"
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "discovery",
			Name:      "sync_duration_seconds",
			Help:      "Reconciliation cycle duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	SyncIndexSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "discovery",
			Name:      "sync_index_documents",
			Help:      "Documents in the search index after the last cycle",
		},
	)
)

var syncMetricsRegistered bool

// RegisterSyncMetrics registers reconciliation metrics. Must be called once from main.
func RegisterSyncMetrics() {
	if syncMetricsRegistered {
		return
	}
	prometheus.MustRegister(SyncRunsTotal)
	prometheus.MustRegister(SyncDocumentsTotal)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(SyncIndexSize)
	syncMetricsRegistered = true
}
