// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package diagnostics provides OpenTelemetry tracing for project initialization.

Each initialization step (folders, scan, resolve, write, configure) runs in
its own span so a slow or failing cmake invocation can be located after the
fact. Two implementations exist:

  - NoOpTracer: default; creates no spans and exports nothing
  - OTelTracer: exports spans as JSON through the stdouttrace exporter,
    enabled with --trace

Spans are written to a file or stderr, never to the network.
*/
package diagnostics

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName identifies spans produced by this tool.
const DefaultServiceName = "stm32init"

// Tracer creates spans around initialization steps.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
type Tracer interface {
	// StartSpan creates a span named name with the given attributes.
	//
	// # Outputs
	//
	//   - context.Context: Context carrying the span, for child spans.
	//   - func(error): Ends the span. Pass the step's error, or nil on success.
	//
	// # Examples
	//
	//	ctx, finish := tracer.StartSpan(ctx, "initializer.scan", nil)
	//	desc, err := scanner.Scan(root)
	//	finish(err)
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(error))

	// TraceID returns the hex trace ID of the span in ctx, or "".
	TraceID(ctx context.Context) string

	// Shutdown flushes pending spans and releases resources.
	Shutdown(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// NoOpTracer
// -----------------------------------------------------------------------------

// NoOpTracer satisfies Tracer without recording anything.
type NoOpTracer struct{}

// Compile-time interface verification.
var _ Tracer = NoOpTracer{}

// StartSpan returns ctx unchanged and a finish function that does nothing.
func (NoOpTracer) StartSpan(ctx context.Context, _ string, _ map[string]string) (context.Context, func(error)) {
	return ctx, func(error) {}
}

// TraceID always returns "".
func (NoOpTracer) TraceID(context.Context) string {
	return ""
}

// Shutdown always succeeds.
func (NoOpTracer) Shutdown(context.Context) error {
	return nil
}

// -----------------------------------------------------------------------------
// OTelTracer
// -----------------------------------------------------------------------------

// OTelTracerConfig configures an OTelTracer.
type OTelTracerConfig struct {
	// ServiceName is recorded as the service.name resource attribute.
	// Default: "stm32init"
	ServiceName string

	// Output receives one JSON document per span. Must not be nil.
	Output io.Writer

	// PrettyPrint indents the exported JSON.
	PrettyPrint bool
}

// OTelTracer exports spans through the OpenTelemetry SDK.
//
// # Thread Safety
//
// OTelTracer is safe for concurrent use.
type OTelTracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// Compile-time interface verification.
var _ Tracer = (*OTelTracer)(nil)

// NewOTelTracer creates a tracer exporting to cfg.Output.
//
// # Description
//
// The tracer owns its TracerProvider; it does not replace the global
// provider. Call Shutdown to flush buffered spans before exit.
//
// # Outputs
//
//   - *OTelTracer: Ready-to-use tracer.
//   - error: Non-nil if Output is nil or the exporter cannot be created.
func NewOTelTracer(cfg OTelTracerConfig) (*OTelTracer, error) {
	if cfg.Output == nil {
		return nil, fmt.Errorf("trace output must not be nil")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	opts := []stdouttrace.Option{stdouttrace.WithWriter(cfg.Output)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)

	return &OTelTracer{
		tracer:   provider.Tracer(cfg.ServiceName),
		provider: provider,
	}, nil
}

// StartSpan starts an internal span with string attributes.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(error)) {
	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		otelAttrs = append(otelAttrs, attribute.String(k, v))
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithAttributes(otelAttrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	finish := func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
	return ctx, finish
}

// TraceID returns the trace ID of the active span in ctx.
func (t *OTelTracer) TraceID(ctx context.Context) string {
	traceID := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}

// Shutdown flushes spans and stops the provider.
func (t *OTelTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}
