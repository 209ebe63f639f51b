package access

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts write role grants.
type Metrics struct {
	Grants *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Grants: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petidentity_ledger_role_grants_total",
			Help: "Write role grant attempts by result",
		}, []string{"result"}),
	}
}

// IncGrant records a grant attempt. A nil receiver is a no-op.
func (m *Metrics) IncGrant(result string) {
	if m != nil {
		m.Grants.WithLabelValues(result).Inc()
	}
}
