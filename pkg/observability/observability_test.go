package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMetricsMiddlewareExportsPrometheus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, err := NewMetrics("test-service")
	require.NoError(t, err)
	defer m.Shutdown(context.Background())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/characters/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/characters/abc", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	m.RecordChat(context.Background(), ChatOK)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "http_server_requests")
	assert.Contains(t, body, `http_route="/api/v1/characters/:id"`)
	assert.Contains(t, body, "chat_replies")
	assert.Contains(t, body, `outcome="ok"`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordChat(context.Background(), ChatOK)
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestSetupTracingWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := SetupTracing("test-service", &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "unit-span")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	out, _ := io.ReadAll(&buf)
	assert.Contains(t, string(out), "unit-span")
}
