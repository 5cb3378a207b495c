package sdk

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the session and gateway.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ForcedLogouts   prometheus.Counter
	LoginAttempts   *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg under the "derby_client" namespace.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "derby_client",
			Name:      "requests_total",
			Help:      "Outbound API requests by method and status code",
		}, []string{"method", "code"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "derby_client",
			Name:      "request_duration_seconds",
			Help:      "Outbound API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		ForcedLogouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "derby_client",
			Name:      "forced_logouts_total",
			Help:      "Sessions cleared because the API answered 401",
		}),

		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "derby_client",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, code).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) forcedLogout() {
	if m == nil {
		return
	}
	m.ForcedLogouts.Inc()
}

func (m *Metrics) loginAttempt(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}
