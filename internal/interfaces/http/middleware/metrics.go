package middleware

import (
	"strconv"
	"time"

	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

var requestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// HTTPMetrics counts requests and records their latency per route.
// It is a pass-through when metrics are disabled.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	passThrough := func(c *gin.Context) { c.Next() }
	if mp == nil || !mp.IsEnabled() {
		return passThrough
	}

	meter := mp.Meter("http.server")
	total, err := telemetry.NewCounter(meter, "http_server_request_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return passThrough
	}
	duration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Boundaries:  requestDurationBuckets,
	})
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := []attribute.KeyValue{
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		}
		ctx := c.Request.Context()
		total.Inc(ctx, attrs...)
		duration.RecordDuration(ctx, time.Since(start), attrs[:2]...)
	}
}
