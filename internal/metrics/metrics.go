// Package metrics provides Prometheus instrumentation for the leaderboard
// service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Manager holds the Prometheus collectors for the service.
type Manager struct {
	registry *prometheus.Registry

	submissions         *prometheus.CounterVec
	leaderboardReads    *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	spectators          prometheus.Gauge
}

// NewManager creates a metrics manager with its own registry so the endpoint
// only exposes what this service defines.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Manager{
		registry: registry,
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hackbutton",
			Name:      "submissions_total",
			Help:      "Score submissions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		leaderboardReads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hackbutton",
			Name:      "leaderboard_reads_total",
			Help:      "Leaderboard reads by mode.",
		}, []string{"mode"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hackbutton",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, path and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		spectators: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hackbutton",
			Name:      "spectators_connected",
			Help:      "Currently connected websocket spectators.",
		}),
	}
}

// RecordSubmission counts one submission for a mode with its outcome.
func (m *Manager) RecordSubmission(mode, outcome string) {
	m.submissions.WithLabelValues(mode, outcome).Inc()
}

// RecordLeaderboardRead counts one top-list read for a mode.
func (m *Manager) RecordLeaderboardRead(mode string) {
	m.leaderboardReads.WithLabelValues(mode).Inc()
}

// SpectatorConnected tracks websocket clients joining and leaving.
func (m *Manager) SpectatorConnected(delta int) {
	m.spectators.Add(float64(delta))
}

// Handler returns the /metrics endpoint handler.
func (m *Manager) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Middleware records request latency per route.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
