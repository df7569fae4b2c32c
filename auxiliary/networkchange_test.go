package auxiliary

import (
	"context"
	"sync"
	"testing"

	"github.com/grpc-guardian/connect-retry/pkg/telemetry"
)

type recordingEventSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEventSink) Emit(ctx context.Context, channel, name string, fields ...telemetry.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recordingEventSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestNewNetworkChangeWatcher_DefaultsToNoopSink(t *testing.T) {
	w := NewNetworkChangeWatcher(nil, nil)
	if w.events == nil {
		t.Fatal("expected a non-nil default EventSink")
	}
	if _, ok := w.events.(telemetry.NoopEventSink); !ok {
		t.Fatalf("expected NoopEventSink default, got %T", w.events)
	}
}

func TestNewNetworkChangeWatcher_KeepsSuppliedSink(t *testing.T) {
	sink := &recordingEventSink{}
	w := NewNetworkChangeWatcher(nil, sink)
	if w.events != sink {
		t.Fatal("expected the supplied sink to be kept as-is")
	}
}
