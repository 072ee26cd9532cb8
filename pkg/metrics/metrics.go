package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "refactortrack"

// Client holds the SDK-side collectors
type Client struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	Retries         *prometheus.CounterVec
	SessionEvents   *prometheus.CounterVec
}

// NewClient creates the client collectors and registers them on reg (skipped when nil)
func NewClient(reg prometheus.Registerer) *Client {
	m := &Client{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outbound API requests by method, namespace and outcome.",
		}, []string{"method", "namespace", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Outbound API call latencies in seconds, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "namespace"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read cache lookups by namespace and result.",
		}, []string{"namespace", "result"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Retried outbound calls by operation.",
		}, []string{"operation"}),
		SessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "events_total",
			Help:      "Session lifecycle events.",
		}, []string{"event"}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.RequestDuration, m.CacheLookups, m.Retries, m.SessionEvents)
	}
	return m
}

// ObserveRequest records one logical API call
func (m *Client) ObserveRequest(method, ns, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, ns, outcome).Inc()
	m.RequestDuration.WithLabelValues(method, ns).Observe(d.Seconds())
}

// CacheHit counts a cache hit for ns
func (m *Client) CacheHit(ns string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(ns, "hit").Inc()
}

// CacheMiss counts a cache miss for ns
func (m *Client) CacheMiss(ns string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(ns, "miss").Inc()
}

// Retry counts one retry of operation
func (m *Client) Retry(operation string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(operation).Inc()
}

// SessionEvent counts a session lifecycle event
func (m *Client) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

// Server holds the stub backend HTTP collectors
type Server struct {
	inFlight        prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	gatherer        prometheus.Gatherer
}

// NewServer registers HTTP collectors on reg. The gatherer backs Handler.
func NewServer(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		gatherer: gatherer,
	}
	reg.MustRegister(s.inFlight, s.requestsTotal, s.requestDuration)
	return s
}

// Middleware measures RPS, latency and in-flight requests per route template
func (s *Server) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.inFlight.Inc()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		s.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		s.requestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		s.inFlight.Dec()
	}
}

// Handler exposes the gathered metrics
func (s *Server) Handler() http.Handler {
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}
