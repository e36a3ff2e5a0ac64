package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for registry document retrieval.
type Metrics struct {
	Downloads      *prometheus.CounterVec
	BatchItems     *prometheus.CounterVec
	BatchDurations prometheus.Histogram
}

// New creates and registers registry metrics.
func New() *Metrics {
	return &Metrics{
		Downloads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigefgate_registry_downloads_total",
			Help: "Artifact downloads by kind and outcome",
		}, []string{"kind", "outcome"}),
		BatchItems: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigefgate_registry_batch_items_total",
			Help: "Batch items by outcome",
		}, []string{"outcome"}),
		BatchDurations: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigefgate_registry_batch_duration_seconds",
			Help:    "End-to-end batch download duration",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

// IncrementDownload records one artifact download outcome.
func (m *Metrics) IncrementDownload(kind, outcome string) {
	m.Downloads.WithLabelValues(kind, outcome).Inc()
}

// IncrementBatchItem records one batch item outcome.
func (m *Metrics) IncrementBatchItem(outcome string) {
	m.BatchItems.WithLabelValues(outcome).Inc()
}
