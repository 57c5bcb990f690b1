package observability

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := NewMetricsRegistry()
	m := NewHTTPMetrics(registry, "test", "/healthz")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/posts/1", "/posts/2", "/healthz", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reqTotal.WithLabelValues("GET", "/posts/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reqTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.reqTotal.WithLabelValues("GET", "/healthz", "200")))
}

func TestAPIMetrics(t *testing.T) {
	m := NewAPIMetrics(NewMetricsRegistry(), "test")
	m.ObserveAccessDenied("post", "DELETE")
	m.ObserveFollow("self")
	m.ObserveFollow("created")
	m.ObserveFanout("ok", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.accessDenied.WithLabelValues("post", "DELETE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.followRejected.WithLabelValues("self")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.followCreated))

	var nilMetrics *APIMetrics
	assert.NotPanics(t, func() {
		nilMetrics.ObserveAccessDenied("post", "PUT")
		nilMetrics.ObserveFollow("duplicate")
		nilMetrics.ObserveKafkaPublish("t", "ok")
	})
}

func TestKafkaHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "Traceparent", Value: []byte("old")}}
	c := kafkaHeaderCarrier{headers: &headers}

	c.Set("traceparent", "new")
	c.Set("baggage", "k=v")
	require.Len(t, headers, 2)
	assert.Equal(t, "new", c.Get("TRACEPARENT"))
	assert.Equal(t, "k=v", c.Get("baggage"))
	assert.ElementsMatch(t, []string{"Traceparent", "baggage"}, c.Keys())
	assert.Equal(t, "", kafkaHeaderCarrier{}.Get("x"))
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{}, ResourceConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = SetupTracing(context.Background(), TracingConfig{Enabled: true}, ResourceConfig{})
	assert.Error(t, err)
}

func TestNormalizeSampleRate(t *testing.T) {
	assert.Equal(t, 1.0, normalizeSampleRate(0))
	assert.Equal(t, 1.0, normalizeSampleRate(2))
	assert.Equal(t, 1.0, normalizeSampleRate(math.NaN()))
	assert.Equal(t, 0.25, normalizeSampleRate(0.25))
}
