// Package metrics exposes Prometheus collectors for upstream traffic and sessions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "helpdesk_proxy"

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	uploadsOrphaned  prometheus.Counter
	logins           *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
// countSessions backs the active sessions gauge; it may be nil.
func New(countSessions func() (int, error)) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the helpdesk API by operation and status code.",
		}, []string{"operation", "code"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of helpdesk API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		uploadsOrphaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_orphaned_total",
			Help:      "Uploads left on the helpdesk after a failed comment could not be cleaned up.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.upstreamRequests,
		m.upstreamDuration,
		m.uploadsOrphaned,
		m.logins,
		collectors.NewGoCollector(),
	)
	if countSessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held by the session store.",
		}, func() float64 {
			n, err := countSessions()
			if err != nil {
				return -1
			}
			return float64(n)
		}))
	}
	return m
}

// ObserveUpstream records one upstream call. status 0 means the call never got a response.
func (m *Metrics) ObserveUpstream(operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.upstreamRequests.WithLabelValues(operation, code).Inc()
	m.upstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// OrphanedUploads counts uploads that could not be deleted after a failed comment.
func (m *Metrics) OrphanedUploads(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.uploadsOrphaned.Add(float64(n))
}

// Login counts a login attempt; result is "ok", "rejected" or "invalid".
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
