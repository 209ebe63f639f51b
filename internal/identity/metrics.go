package identity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts resolutions by outcome.
type Metrics struct {
	Resolutions *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petidentity_identity_resolutions_total",
			Help: "Ledger id resolutions by outcome",
		}, []string{"outcome"}), // cached, discovered, registered, race_absorbed, refused, failed
	}
}

func (m *Metrics) IncOutcome(outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome).Inc()
	}
}
