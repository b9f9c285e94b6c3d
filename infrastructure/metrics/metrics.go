package metrics

import (
	"net/http"
	"strconv"
	"time"

	"omnipost/domain/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "omnipost"

// Metrics owns a private registry.
type Metrics struct {
	registry *prometheus.Registry

	connections  *prometheus.CounterVec
	attempts     *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oauth_connections_total",
			Help:      "OAuth connection steps by platform, stage and outcome category.",
		}, []string{"platform", "stage", "result"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_attempts_total",
			Help:      "Per-platform publish attempts by final status.",
		}, []string{"platform", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Local API requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Local API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	m.registry.MustRegister(
		m.connections,
		m.attempts,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveConnection counts a begin or finish step. A nil error counts as "ok".
func (m *Metrics) ObserveConnection(platform model.PlatformID, stage string, err error) {
	result := "ok"
	if err != nil {
		result = string(model.Classify(err))
	}
	m.connections.WithLabelValues(string(platform), stage, result).Inc()
}

func (m *Metrics) ObserveAttempts(attempts []model.PostAttempt) {
	for _, a := range attempts {
		m.attempts.WithLabelValues(string(a.Platform), string(a.Status)).Inc()
	}
}

// GinMiddleware records request counts and latency keyed by the route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
