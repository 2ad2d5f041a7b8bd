package logging

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dshills/neura"

// Span wraps an OTel span started by StartSpan.
type Span struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan starts a child span of the trace on ctx. Without a configured
// tracer provider the global no-op provider is used.
//
//	sp := logging.StartSpan(ctx, "agent.tool_call", attribute.String("tool", name))
//	defer sp.End()
//	ctx = sp.Context()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) *Span {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
	return &Span{ctx: ctx, span: span}
}

// Context returns the context carrying the span.
func (s *Span) Context() context.Context {
	return s.ctx
}

// End completes the span.
func (s *Span) End() {
	s.span.End()
}

// RecordError marks the span failed. Nil errors are ignored.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttributes adds attributes to the span.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}
