// Package telemetry installs the process logger and, when an OTLP endpoint
// is configured, the trace and log providers behind it.
package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Options struct {
	ServiceName string
	// Endpoint is an OTLP/gRPC URL. Empty disables export.
	Endpoint string
	Level    slog.Level
	// Format is "json" or "text".
	Format string
	Output io.Writer
}

// ShutdownFunc flushes and stops whatever Setup started.
type ShutdownFunc func(ctx context.Context) error

func newLocalHandler(opts Options) slog.Handler {
	hopts := &slog.HandlerOptions{Level: opts.Level}
	if opts.Format == "json" {
		return slog.NewJSONHandler(opts.Output, hopts)
	}
	return slog.NewTextHandler(opts.Output, hopts)
}

// Setup replaces the default slog logger and the global OpenTelemetry
// providers. The returned function must be called on shutdown.
func Setup(ctx context.Context, opts Options) (ShutdownFunc, error) {
	local := newLocalHandler(opts)
	if opts.Endpoint == "" {
		slog.SetDefault(slog.New(local))
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attribute.String("service.name", opts.ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	traceExp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(opts.Endpoint))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)

	logExp, err := otlploggrpc.New(ctx, otlploggrpc.WithEndpointURL(opts.Endpoint))
	if err != nil {
		return nil, errors.Join(err, tp.Shutdown(ctx))
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	bridge := otelslog.NewHandler(opts.ServiceName, otelslog.WithLoggerProvider(lp))
	slog.SetDefault(slog.New(Fanout(local, bridge)))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), lp.Shutdown(ctx))
	}, nil
}
