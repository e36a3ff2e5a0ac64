package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus metrics. Domain packages register
// their own metrics alongside these.
type Metrics struct {
	SessionsCreated prometheus.Counter
}

// New creates and registers all process-wide Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigefgate_sessions_created_total",
			Help: "Total number of authenticated sessions created",
		}),
	}
}

// IncrementSessionsCreated increments the sessions created counter by 1.
func (m *Metrics) IncrementSessionsCreated() {
	m.SessionsCreated.Inc()
}
