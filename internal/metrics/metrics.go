// Package metrics exposes prometheus collectors for authentication outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the service collectors on a private registry so tests can
// create as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	AuthRequests  *prometheus.CounterVec
	AuthDuration  *prometheus.HistogramVec
	LoginLockouts prometheus.Counter
}

// New creates and registers the collectors, including the standard Go and
// process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		AuthRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionauth_auth_requests_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		AuthDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sessionauth_auth_request_duration_seconds",
				Help:    "Duration of auth operations, including password hashing",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LoginLockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessionauth_login_lockouts_total",
			Help: "Total number of login lockouts triggered by repeated failures",
		}),
	}

	registry.MustRegister(m.AuthRequests, m.AuthDuration, m.LoginLockouts)
	return m
}

// ObserveAuth records one auth operation. Safe on a nil receiver.
func (m *Metrics) ObserveAuth(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AuthRequests.WithLabelValues(operation, outcome).Inc()
	m.AuthDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordLockout counts a login lockout. Safe on a nil receiver.
func (m *Metrics) RecordLockout() {
	if m == nil {
		return
	}
	m.LoginLockouts.Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
