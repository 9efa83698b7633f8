package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	attrFunction = attribute.Key("code.function")
	attrLatency  = attribute.Key("calltrack.latency_ns")
	attrItem     = attribute.Key("calltrack.item")
)

// StartCallSpan starts a span for one tracked call, named after the
// function identity and stamped with the call's start time.
func StartCallSpan(ctx context.Context, tracer trace.Tracer, identity string, start time.Time) (context.Context, trace.Span) {
	return tracer.Start(ctx, identity,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(start),
		trace.WithAttributes(attrFunction.String(identity)),
	)
}

// EndSpan finishes a span at end, recording error status if applicable.
func EndSpan(span trace.Span, end time.Time, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err, trace.WithTimestamp(end))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

// RecordSpan emits a span for an interval that has already elapsed, such as
// one item of a lazy sequence.
func RecordSpan(ctx context.Context, tracer trace.Tracer, identity string, start, end time.Time, err error, attrs ...attribute.KeyValue) {
	_, span := StartCallSpan(ctx, tracer, identity, start)
	attrs = append(attrs, attrLatency.Int64(int64(end.Sub(start))))
	EndSpan(span, end, err, attrs...)
}

// ItemAttr labels a span with the index of the sequence item it covers.
func ItemAttr(item int) attribute.KeyValue {
	return attrItem.Int(item)
}
