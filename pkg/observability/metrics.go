// Package observability wires OpenTelemetry metrics (exported in Prometheus
// format) and tracing.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Chat outcomes recorded by RecordChat
const (
	ChatOK                = "ok"
	ChatInvalid           = "invalid"
	ChatNotFound          = "character_not_found"
	ChatCredentialMissing = "credential_missing"
	ChatCredentialInvalid = "credential_invalid"
	ChatUpstreamError     = "upstream_error"
)

// Metrics owns the meter provider and the instruments the server records.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	requests metric.Int64Counter
	duration metric.Float64Histogram
	chats    metric.Int64Counter
}

// NewMetrics builds a meter provider backed by a private Prometheus registry
func NewMetrics(serviceName string) (*Metrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName)),
	)
	meter := provider.Meter("characterai/backend")

	m := &Metrics{registry: registry, provider: provider}

	if m.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests served")); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.chats, err = meter.Int64Counter("chat.replies",
		metric.WithDescription("Chat requests by outcome")); err != nil {
		return nil, err
	}

	return m, nil
}

func newResource(serviceName string) *resource.Resource {
	return resource.NewSchemaless(attribute.String("service.name", serviceName))
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records one request count and latency sample per request
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("http.status_code", strconv.Itoa(c.Writer.Status())),
		)
		ctx := c.Request.Context()
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}

// RecordChat counts one chat request with its outcome
func (m *Metrics) RecordChat(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.chats.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Shutdown flushes and stops the meter provider
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
