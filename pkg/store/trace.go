package store

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/SalvaTerol/filament/pkg/store"

// Tracer wraps executor calls in client spans.
type Tracer struct {
	tracer trace.Tracer
	system string
}

// NewTracer builds a Tracer. A nil provider uses the global one.
func NewTracer(tp trace.TracerProvider, system string) Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return Tracer{tracer: tp.Tracer(tracerName), system: system}
}

// Start opens a span for op. The returned func ends it, recording err.
func (t Tracer) Start(ctx context.Context, op, statement string) (context.Context, func(error)) {
	if t.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := t.tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", t.system),
			attribute.String("db.statement", statement),
		),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
