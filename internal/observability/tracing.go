package observability

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "yatube-backend"

type TracingConfig struct {
	Enabled          bool
	OTLPGrpcEndpoint string
	Insecure         bool
	SampleRate       float64
}

type ResourceConfig struct {
	ServiceName string
	Environment string
}

// Tracer returns the tracer used for spans the service starts by hand
// (kafka produce/consume, feed fan-out).
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// SetupTracing installs a global OTLP/gRPC tracer provider and returns its
// shutdown func. When tracing is disabled the returned func is a no-op.
func SetupTracing(ctx context.Context, tracing TracingConfig, resourceCfg ResourceConfig) (func(context.Context) error, error) {
	if !tracing.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if tracing.OTLPGrpcEndpoint == "" {
		return nil, errors.New("otlp grpc endpoint is required when tracing is enabled")
	}
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(tracing.OTLPGrpcEndpoint)}
	if tracing.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(resourceCfg.ServiceName),
			attribute.String("deployment.environment", resourceCfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(normalizeSampleRate(tracing.SampleRate)))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}

// normalizeSampleRate maps out-of-range rates to "sample everything".
func normalizeSampleRate(rate float64) float64 {
	if math.IsNaN(rate) || rate <= 0 || rate > 1 {
		return 1
	}
	return rate
}
