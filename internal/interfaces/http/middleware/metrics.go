package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/actdesk/backend/internal/infrastructure/telemetry"
)

var (
	attrHTTPMethod      = attribute.Key("http.method")
	attrHTTPRoute       = attribute.Key("http.route")
	attrHTTPStatusCode  = attribute.Key("http.status_code")
	attrHTTPStatusClass = attribute.Key("http.status_class")
)

type httpInstruments struct {
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
	requestSize  metric.Float64Histogram
	responseSize metric.Float64Histogram
	inFlight     metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	in := telemetry.NewInstruments(meter)
	m := &httpInstruments{
		requests:     in.Counter("http_server_request_total", "Total number of HTTP requests", "{request}"),
		duration:     in.Histogram("http_server_request_duration_seconds", "HTTP request latency", "s", telemetry.RenderDurationBuckets),
		requestSize:  in.Histogram("http_server_request_size_bytes", "HTTP request body size", "By", telemetry.DocumentSizeBuckets),
		responseSize: in.Histogram("http_server_response_size_bytes", "HTTP response body size", "By", telemetry.DocumentSizeBuckets),
		inFlight:     in.UpDownCounter("http_server_active_requests", "Requests currently being served", "{request}"),
	}
	return m, in.Err()
}

// HTTPMetrics records request count, latency, body sizes and in-flight
// requests per route pattern. It does nothing unless mp exports metrics.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if !mp.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(mp.Meter("http.server"))
}

// HTTPMetricsWithMeter records HTTP metrics on meter
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	m, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		reqSize := c.Request.ContentLength

		m.inFlight.Add(ctx, 1)
		c.Next()
		m.inFlight.Add(ctx, -1)

		status := c.Writer.Status()
		base := metric.WithAttributes(attrHTTPMethod.String(c.Request.Method), attrHTTPRoute.String(routePattern(c)))
		m.requests.Add(ctx, 1, base, metric.WithAttributes(
			attrHTTPStatusCode.Int(status),
			attrHTTPStatusClass.String(StatusClass(status)),
		))
		m.duration.Record(ctx, time.Since(start).Seconds(), base)
		if reqSize > 0 {
			m.requestSize.Record(ctx, float64(reqSize), base)
		}
		if size := c.Writer.Size(); size > 0 {
			m.responseSize.Record(ctx, float64(size), base)
		}
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// routePattern returns the matched route rather than the raw path so the
// route label stays bounded
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

// StatusClass groups a status code as 2xx, 3xx, 4xx or 5xx
func StatusClass(statusCode int) string {
	if statusCode < 200 || statusCode > 599 {
		return "other"
	}
	return string(rune('0'+statusCode/100)) + "xx"
}
