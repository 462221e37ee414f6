/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package telemetry configures OpenTelemetry tracing for the supervisor
// daemon's Decision Loop.
//
// Spans follow the OTel GenAI semantic conventions where applicable:
//   - gen_ai.system — the model provider
//   - gen_ai.request.model — the model name
//   - gen_ai.usage.input_tokens — tokens consumed
//   - gen_ai.usage.output_tokens — tokens generated
//
// Custom span attributes use the `cerebric.` prefix.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "cerebric.io/decisionloop"
)

// Tracer returns the package-level tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InitTraceProvider initialises the OTel trace provider with an OTLP gRPC
// exporter. If endpoint is empty, tracing is disabled (a no-op shutdown is
// returned and the global provider is left at its default no-op). Returns a
// shutdown function that must be called on daemon exit.
func InitTraceProvider(ctx context.Context, endpoint string, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(), // TLS configurable via env (OTEL_EXPORTER_OTLP_INSECURE)
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("cerebricd"),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// --- Span helpers ---

// StartJobSpan creates the parent span for one Decision Loop job firing.
func StartJobSpan(ctx context.Context, task, trigger string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "job.run",
		trace.WithAttributes(
			attribute.String("cerebric.task", task),
			attribute.String("cerebric.trigger", trigger),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndJobSpan enriches the job span with the terminal JobState.
func EndJobSpan(span trace.Span, state string, rejected bool) {
	span.SetAttributes(
		attribute.String("cerebric.job_state", state),
		attribute.Bool("cerebric.rejected", rejected),
	)
	span.End()
}

// StartPromptSpan creates a child span for composing the autonomous prompt.
func StartPromptSpan(ctx context.Context, task string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "job.compose_prompt",
		trace.WithAttributes(
			attribute.String("cerebric.task", task),
		),
	)
}

// StartLLMCallSpan creates a child span for a model call, following GenAI conventions.
func StartLLMCallSpan(ctx context.Context, model, provider string, step int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "gen_ai.chat",
		trace.WithAttributes(
			attribute.String("gen_ai.system", provider),
			attribute.String("gen_ai.request.model", model),
			attribute.Int("cerebric.step", step),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndLLMCallSpan enriches the model-call span with usage data.
func EndLLMCallSpan(span trace.Span, inputTokens, outputTokens int64, requiresApproval bool) {
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", inputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", outputTokens),
		attribute.Bool("cerebric.requires_approval", requiresApproval),
	)
	span.End()
}

// StartExecuteSpan creates a child span for the task's Execute call.
func StartExecuteSpan(ctx context.Context, task, action, risk string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "job.execute",
		trace.WithAttributes(
			attribute.String("cerebric.task", task),
			attribute.String("cerebric.action", action),
			attribute.String("cerebric.risk", risk),
		),
	)
}

// EndExecuteSpan enriches the execute span with the terminal job state.
func EndExecuteSpan(span trace.Span, state string, blocked bool, blockReason string) {
	span.SetAttributes(
		attribute.String("cerebric.job_state", state),
		attribute.Bool("cerebric.blocked", blocked),
	)
	if blocked {
		span.SetAttributes(attribute.String("cerebric.block_reason", blockReason))
	}
	span.End()
}

// StartNotifySpan creates a child span for recovery notification delivery.
func StartNotifySpan(ctx context.Context, task, severity string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "job.notify",
		trace.WithAttributes(
			attribute.String("cerebric.task", task),
			attribute.String("cerebric.severity", severity),
		),
	)
}
