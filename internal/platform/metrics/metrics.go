package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide HTTP and domain counters.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	UsersCreated    prometheus.Counter
	PetsRegistered  prometheus.Counter
	ReviewsComplete *prometheus.CounterVec
	LoginLockouts   prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petidentity_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "petidentity_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petidentity_users_created_total",
			Help: "Total number of users created in the system",
		}),
		PetsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petidentity_pets_registered_total",
			Help: "Pets created with a ledger registration",
		}),
		ReviewsComplete: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petidentity_reviews_total",
			Help: "Completed reviews by kind and outcome",
		}, []string{"kind", "outcome"}),
		LoginLockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petidentity_login_lockouts_total",
			Help: "Sign-in keys locked after repeated failures",
		}),
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

func (m *Metrics) IncrementPetsRegistered() {
	if m != nil {
		m.PetsRegistered.Inc()
	}
}

// IncrementReview counts a completed review of kind ("medical", "correction").
func (m *Metrics) IncrementReview(kind, outcome string) {
	if m != nil {
		m.ReviewsComplete.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) IncrementLoginLockouts() {
	if m != nil {
		m.LoginLockouts.Inc()
	}
}
