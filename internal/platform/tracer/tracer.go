package tracer

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const setupTimeout = 10 * time.Second

// InitTracer installs a global tracer provider exporting over OTLP/gRPC.
// With an empty endpoint, or when the exporter cannot be built, spans are
// recorded but never exported.
func InitTracer(serviceName, otlpEndpoint string, log logger.Logger) *sdktrace.TracerProvider {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if otlpEndpoint == "" {
		log.Info("OpenTelemetry tracing export disabled: no OTLP endpoint configured")
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		log.Errorf("Failed to create OTLP trace exporter for %s: %v", otlpEndpoint, err)
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		log.Warnf("Failed to merge OpenTelemetry resource, using default: %v", err)
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Infof("OpenTelemetry tracer initialized for %s, exporting to %s", serviceName, otlpEndpoint)
	return tp
}
