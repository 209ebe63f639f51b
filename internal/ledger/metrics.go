package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for ledger calls.
type Metrics struct {
	Calls        *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the ledger metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Calls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petidentity_ledger_calls_total",
			Help: "Ledger calls by operation and outcome",
		}, []string{"op", "outcome"}),
		CallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "petidentity_ledger_call_duration_seconds",
			Help:    "Ledger call latency including receipt waits",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"op"}),
	}
}

// ObserveCall records one ledger call. A nil receiver is a no-op.
func (m *Metrics) ObserveCall(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(op, outcome).Inc()
	m.CallDuration.WithLabelValues(op).Observe(d.Seconds())
}
