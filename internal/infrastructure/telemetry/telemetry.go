// Package telemetry wires OpenTelemetry traces, metrics and logs for the
// render pipeline, the HTTP API and database access, plus Pyroscope
// profiling.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/actdesk/backend/internal/infrastructure/config"
)

// ServiceVersion is reported as service.version on every signal
const ServiceVersion = "1.0.0"

const shutdownTimeout = 10 * time.Second

// Config selects which signals are exported to the OTLP collector
type Config struct {
	ServiceName string
	Endpoint    string
	Insecure    bool

	Traces        bool
	SamplingRatio float64
	// SpanProfiles links spans to Pyroscope profiles
	SpanProfiles bool

	Metrics      bool
	MetricsEvery time.Duration
	Logs         bool

	// Profiles pushes continuous profiles to the Pyroscope server at
	// ProfilesAddress. It does not depend on the OTLP signals.
	Profiles        bool
	ProfilesAddress string
}

// ConfigFrom maps the application telemetry section. Metrics and logs are
// exported only when telemetry as a whole is enabled; profiling has its own
// switch.
func ConfigFrom(cfg config.TelemetryConfig) Config {
	return Config{
		ServiceName:   cfg.ServiceName,
		Endpoint:      cfg.CollectorEndpoint,
		Insecure:      cfg.Insecure,
		Traces:        cfg.Enabled,
		SamplingRatio: cfg.SamplingRatio,
		SpanProfiles:  cfg.Enabled && cfg.ProfilingEnabled,
		Metrics:       cfg.Enabled && cfg.MetricsEnabled,
		MetricsEvery:  cfg.MetricsInterval,
		Logs:          cfg.Enabled && cfg.LogsEnabled,

		Profiles:        cfg.ProfilingEnabled,
		ProfilesAddress: cfg.ProfilingServerAddress,
	}
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}
	return res, nil
}

// shutdownWithin stops one pipeline, giving it at most shutdownTimeout
func shutdownWithin(ctx context.Context, signal string, stop func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		return fmt.Errorf("telemetry: shut down %s: %w", signal, err)
	}
	return nil
}
