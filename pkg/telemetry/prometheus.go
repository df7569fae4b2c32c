package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusEventSink turns "transport" events into counters: one
// series per (channel, name, interceptor, method). Fields other than
// "interceptor" and "method" are ignored — Prometheus label sets must
// stay low-cardinality, so free-form fields like errorCode are dropped
// here and left to the debug log.
type PrometheusEventSink struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
}

// NewPrometheusEventSink registers its counters on registry. Passing a
// nil registry creates a private one so callers that only want the
// counters (not exposition) don't have to wire a registry.
func NewPrometheusEventSink(registry *prometheus.Registry) *PrometheusEventSink {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connect_retry",
			Name:      "events_total",
			Help:      "Total number of structured retry events emitted, by channel/name/interceptor/method.",
		},
		[]string{"channel", "name", "interceptor", "method"},
	)
	registry.MustRegister(events)
	return &PrometheusEventSink{registry: registry, events: events}
}

// Registry exposes the underlying registry so a caller can serve
// /metrics alongside it.
func (s *PrometheusEventSink) Registry() *prometheus.Registry {
	return s.registry
}

func (s *PrometheusEventSink) Emit(_ context.Context, channel, name string, fields ...Field) {
	var interceptor, method string
	for _, f := range fields {
		switch f.Key {
		case "interceptor":
			interceptor, _ = f.Value.(string)
		case "method":
			method, _ = f.Value.(string)
		}
	}
	s.events.WithLabelValues(channel, name, interceptor, method).Inc()
}
