// Package observability provides OpenTelemetry tracing over OTLP HTTP.
//
// Tracing is off by default and enabled via config:
//
//	tracing:
//	  enabled: true
//	  endpoint: "localhost:4318"
//	  environment: "dev"
//
// Spans are exported to the collector at the configured endpoint; the
// shutdown function flushes pending spans.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const serviceName = "roam"

// Config for the OTLP trace exporter.
type Config struct {
	// Endpoint is the OTLP HTTP collector, host:port (default localhost:4318).
	Endpoint string
	// Environment is the deployment environment tag (dev, staging, prod).
	Environment string
	// Version is the build version attached to all spans.
	Version string
	// Logger for setup diagnostics (nil falls back to slog.Default).
	Logger *slog.Logger
}

// DefaultEndpoint is the default OTLP HTTP collector endpoint.
const DefaultEndpoint = "localhost:4318"

// Setup installs a global tracer provider exporting to the configured
// collector. It returns a shutdown function that flushes pending spans;
// callers run it on exit with a bounded context.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // local collector, no TLS
	)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.Version),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", serviceName,
		"environment", cfg.Environment,
	)
	return provider.Shutdown, nil
}
