package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the spatial query engine.
type Metrics struct {
	Queries       *prometheus.CounterVec
	Fallbacks     prometheus.Counter
	RegionQueries prometheus.Counter
	QueryDuration *prometheus.HistogramVec
}

// New creates and registers spatial query metrics.
func New() *Metrics {
	return &Metrics{
		Queries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigefgate_spatial_queries_total",
			Help: "Spatial queries by serving backend and outcome",
		}, []string{"backend", "outcome"}),
		Fallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigefgate_spatial_fallbacks_total",
			Help: "Queries served by the fallback after a primary failure",
		}),
		RegionQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigefgate_spatial_region_queries_total",
			Help: "Per-region queries issued to the primary backend",
		}),
		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sigefgate_spatial_query_duration_seconds",
			Help:    "End-to-end spatial query duration by backend",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"backend"}),
	}
}

// ObserveQuery records one completed query.
func (m *Metrics) ObserveQuery(backend, outcome string, d time.Duration) {
	m.Queries.WithLabelValues(backend, outcome).Inc()
	m.QueryDuration.WithLabelValues(backend).Observe(d.Seconds())
}
