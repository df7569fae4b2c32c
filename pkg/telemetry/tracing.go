package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingEventSink records each structured event as a span event on
// the span active in ctx, if any. It never starts its own span: the
// retry engines operate inside the caller's existing call span.
type TracingEventSink struct{}

// NewTracingEventSink returns a TracingEventSink.
func NewTracingEventSink() *TracingEventSink {
	return &TracingEventSink{}
}

func (TracingEventSink) Emit(ctx context.Context, channel, name string, fields ...Field) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(fields)+1)
	attrs = append(attrs, attribute.String("channel", channel))
	for _, f := range fields {
		attrs = append(attrs, attribute.String(f.Key, toAttrString(f.Value)))
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func toAttrString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return fmt.Sprint(t)
	}
}
