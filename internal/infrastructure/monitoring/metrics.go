// Package monitoring provides Prometheus metrics for the chat service.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Upstream (MISO) metrics
	UpstreamCalls    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// Task metrics
	TasksActive prometheus.Gauge
	TasksTotal  *prometheus.CounterVec

	// Session metrics
	SessionsActive prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with its own registry, so tests
// can construct independent instances without collisions.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskchat_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskchat_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		UpstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskchat_upstream_calls_total",
				Help: "Total number of upstream MISO calls",
			},
			[]string{"agent", "kind", "outcome"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskchat_upstream_call_duration_seconds",
				Help:    "Upstream MISO call duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"agent", "kind"},
		),
		TasksActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskchat_tasks_active",
				Help: "Number of tasks awaiting resolution",
			},
		),
		TasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskchat_tasks_total",
				Help: "Total number of dispatched tasks by outcome",
			},
			[]string{"outcome"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskchat_sessions_active",
				Help: "Number of live session engines",
			},
		),
		WSConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskchat_ws_connections",
				Help: "Number of open WebSocket connections",
			},
		),
		WSMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskchat_ws_messages_total",
				Help: "Total number of WebSocket messages by direction and type",
			},
			[]string{"direction", "type"},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.UpstreamCalls,
		m.UpstreamDuration,
		m.TasksActive,
		m.TasksTotal,
		m.SessionsActive,
		m.WSConnections,
		m.WSMessages,
	)

	return m
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpstreamCall records one upstream call with its outcome.
func (m *Metrics) RecordUpstreamCall(agent, kind, outcome string, duration time.Duration) {
	m.UpstreamCalls.WithLabelValues(agent, kind, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(agent, kind).Observe(duration.Seconds())
}

// TaskStarted marks a task dispatch.
func (m *Metrics) TaskStarted() {
	m.TasksActive.Inc()
}

// TaskFinished marks a terminal task resolution.
func (m *Metrics) TaskFinished(outcome string) {
	m.TasksActive.Dec()
	m.TasksTotal.WithLabelValues(outcome).Inc()
}

// SetSessionsActive updates the live session gauge.
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
