// Package telemetry defines the two best-effort sinks the retry
// engines report through: a free-form debug text log and a structured
// key/value event channel. Neither sink may ever cause the engine to
// fail; implementations swallow their own errors.
package telemetry

import "context"

// Field is one structured key/value pair attached to an event.
type Field struct {
	Key   string
	Value any
}

// F is a convenience constructor for a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// DebugLog is the free-form text channel. Messages logged here include
// the exact substrings the retry engines are required to emit, e.g.
// "About to retry <method>".
type DebugLog interface {
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// EventSink is the structured channel. Channel is a coarse namespace
// ("transport"); name identifies the event ("Retry attempt", "Retry
// succeeded", "Retry exhausted").
type EventSink interface {
	Emit(ctx context.Context, channel, name string, fields ...Field)
}

// NoopDebugLog discards everything. It is the zero-value default used
// when a caller does not supply a logger.
type NoopDebugLog struct{}

func (NoopDebugLog) Info(string, ...Field)  {}
func (NoopDebugLog) Warn(string, ...Field)  {}
func (NoopDebugLog) Error(string, ...Field) {}

// NoopEventSink discards everything.
type NoopEventSink struct{}

func (NoopEventSink) Emit(context.Context, string, string, ...Field) {}
