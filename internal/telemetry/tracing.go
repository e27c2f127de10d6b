/**
 * @description
 * This file wires OpenTelemetry tracing. Spans are exported over OTLP/gRPC
 * to the collector named by OTEL_EXPORTER_OTLP_ENDPOINT; when no endpoint is
 * configured the global tracer provider stays a no-op and span calls cost
 * nothing.
 */

package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitTracer configures the global tracer provider to export spans to the
// given OTLP/gRPC endpoint. It returns a shutdown function that flushes
// pending spans. An empty endpoint leaves tracing disabled.
func InitTracer(ctx context.Context, endpoint, serviceName string) (func(context.Context) error, error) {
	if endpoint == "" {
		log.Println("level=info component=telemetry msg=\"tracing disabled; no OTLP endpoint configured\"")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	log.Printf("level=info component=telemetry msg=\"tracing enabled\" endpoint=%s service=%s", endpoint, serviceName)
	return provider.Shutdown, nil
}
