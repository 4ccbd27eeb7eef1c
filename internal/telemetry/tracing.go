// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package telemetry

import (
	"context"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("emuctl")

// StartSpan opens a span, stamping the correlation ID when one is set.
func StartSpan(ctx context.Context, correlationID, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if correlationID != "" {
		attrs = append(attrs, attribute.String("correlation_id", correlationID))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError records err on span; nil errors are ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
}

// NewCorrelationID returns the ambient correlation ID from the environment,
// or a fresh UUID when none is set, so every process run is traceable.
func NewCorrelationID() string {
	if id := os.Getenv("EMUCTL_CORRELATION_ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// SetupTracing installs an OTLP/HTTP trace exporter pointed at endpoint and
// returns a shutdown function. With an empty endpoint it is a no-op.
func SetupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
