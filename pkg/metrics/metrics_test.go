package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClientCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClient(reg)

	m.CacheHit("clients_list")
	m.CacheHit("clients_list")
	m.CacheMiss("clients_list")
	m.Retry("GET clients_list")
	m.ObserveRequest("GET", "clients_list", "ok", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("clients_list", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("clients_list", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Retries.WithLabelValues("GET clients_list")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "clients_list", "ok")))
}

func TestNilClientIsNoop(t *testing.T) {
	var m *Client
	assert.NotPanics(t, func() {
		m.CacheHit("x")
		m.ObserveRequest("GET", "x", "ok", time.Millisecond)
		m.SessionEvent("logout")
	})
}

func TestServerMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	s := NewServer(reg, reg)

	r := gin.New()
	r.Use(s.Middleware())
	r.GET("/clients/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(s.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/clients/42", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.requestsTotal.WithLabelValues("GET", "/clients/:id", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "refactortrack_http_requests_total")
}
