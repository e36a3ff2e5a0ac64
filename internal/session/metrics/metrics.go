package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for session lifecycle management.
type Metrics struct {
	Reauthentications *prometheus.CounterVec
	ExpiryRetries     prometheus.Counter
	LoginDuration     prometheus.Histogram
}

// New creates and registers session lifecycle metrics.
func New() *Metrics {
	return &Metrics{
		Reauthentications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigefgate_session_reauthentications_total",
			Help: "Reauthentication attempts by layer and outcome",
		}, []string{"layer", "outcome"}),
		ExpiryRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigefgate_session_expiry_retries_total",
			Help: "Operations retried after a session expiry signal",
		}),
		LoginDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigefgate_session_login_duration_seconds",
			Help:    "Duration of external login flows",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 180},
		}),
	}
}

// ObserveLogin records the duration of one external login flow.
func (m *Metrics) ObserveLogin(d time.Duration) {
	m.LoginDuration.Observe(d.Seconds())
}

// IncrementReauth records a reauthentication attempt outcome for a layer
// ("identity" or "registry").
func (m *Metrics) IncrementReauth(layer, outcome string) {
	m.Reauthentications.WithLabelValues(layer, outcome).Inc()
}
