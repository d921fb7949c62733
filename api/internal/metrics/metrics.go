// Package metrics exposes Prometheus counters for the analyze endpoint.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	verdictsTotal    *prometheus.CounterVec
}

// New registers the collectors on reg (prometheus.DefaultRegisterer in main,
// a fresh registry in tests).
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "potato_check_requests_total",
			Help: "Analyze requests by outcome kind and status code",
		}, []string{"kind", "status"}),
		providerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "potato_check_provider_duration_seconds",
			Help:    "Duration of generateContent calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),
		verdictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "potato_check_verdicts_total",
			Help: "Verdicts returned by the model",
		}, []string{"verdict"}),
	}
}

// ObserveRequest counts one finished request. kind is "ok" on success.
func (m *Metrics) ObserveRequest(kind string, status int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(kind, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveProvider(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveVerdict(verdict string) {
	if m == nil || verdict == "" {
		return
	}
	m.verdictsTotal.WithLabelValues(verdict).Inc()
}
