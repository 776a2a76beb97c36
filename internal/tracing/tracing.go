// Package tracing provides OpenTelemetry span instrumentation for the
// engine: one span per turn, one per LLM call, one per tool dispatch.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/actionloop/agentcore/pkg/toolkit"
)

// Config controls whether tracing is enabled and where spans are exported.
type Config struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"` // "otlp-grpc" or "stdout"
	EndpointURL  string  `yaml:"endpoint_url"`
	SamplingRate float64 `yaml:"sampling_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// InitProvider builds and installs the global TracerProvider described by
// cfg. When disabled it installs a no-op provider so GetTracer calls
// elsewhere in the process stay cheap and safe. The caller is responsible
// for calling Shutdown on the returned provider during process teardown.
func InitProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return nil, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("tracing: creating exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing: building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.EndpointURL),
			otlptracegrpc.WithInsecure(),
		)
	}
}

// Tracer implements react.Tracer over an OpenTelemetry trace.Tracer.
type Tracer struct {
	tracer trace.Tracer
}

// New returns a Tracer that reports spans under name, using whichever
// TracerProvider is currently installed globally (InitProvider, or the
// library default no-op provider if that was never called).
func New(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// StartTurn opens a span covering one whole engine turn.
func (t *Tracer) StartTurn(ctx context.Context, sessionID string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "react.turn", trace.WithAttributes(
		attribute.String("session_id", sessionID),
	))
	return ctx, func() { span.End() }
}

// StartLLMCall opens a span covering one model round trip within a turn.
func (t *Tracer) StartLLMCall(ctx context.Context, step int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "react.llm_call", trace.WithAttributes(
		attribute.Int("step", step),
	))
	return ctx, func() { span.End() }
}

// StartToolDispatch opens a span covering one tool invocation.
func (t *Tracer) StartToolDispatch(ctx context.Context, name string, kind toolkit.Kind) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "react.tool_dispatch", trace.WithAttributes(
		attribute.String("tool_name", name),
		attribute.String("tool_kind", string(kind)),
	))
	return ctx, func() { span.End() }
}
