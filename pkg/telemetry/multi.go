package telemetry

import "context"

// MultiEventSink fans one Emit call out to every sink it wraps, in
// order. A panicking sink would take down the call, so sinks are
// expected to be as defensive as PrometheusEventSink and
// TracingEventSink are.
type MultiEventSink struct {
	sinks []EventSink
}

// NewMultiEventSink combines sinks into one.
func NewMultiEventSink(sinks ...EventSink) *MultiEventSink {
	return &MultiEventSink{sinks: sinks}
}

func (m *MultiEventSink) Emit(ctx context.Context, channel, name string, fields ...Field) {
	for _, s := range m.sinks {
		s.Emit(ctx, channel, name, fields...)
	}
}
