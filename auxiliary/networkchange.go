package auxiliary

import (
	"context"

	"github.com/grpc-guardian/connect-retry/pkg/telemetry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
)

// NetworkChangeWatcher observes a grpc.ClientConn's connectivity
// transitions and reports them to a telemetry.EventSink. It holds no
// retry state and makes no retry decisions: the retry engines classify
// purely from the error a call returns, never from connectivity state,
// so this watcher is observational only, per spec §1's "auxiliary
// network-change ... interceptor that appears in the repository but
// shares no state with the retry core."
type NetworkChangeWatcher struct {
	conn   *grpc.ClientConn
	events telemetry.EventSink
}

// NewNetworkChangeWatcher builds a watcher for conn. events defaults
// to a no-op sink when nil.
func NewNetworkChangeWatcher(conn *grpc.ClientConn, events telemetry.EventSink) *NetworkChangeWatcher {
	if events == nil {
		events = telemetry.NoopEventSink{}
	}
	return &NetworkChangeWatcher{conn: conn, events: events}
}

// Watch blocks, emitting a "Connectivity changed" event each time the
// connection's state transitions, until ctx is done or the connection
// reaches its terminal Shutdown state. Run it in its own goroutine.
func (w *NetworkChangeWatcher) Watch(ctx context.Context) {
	state := w.conn.GetState()
	for {
		if !w.conn.WaitForStateChange(ctx, state) {
			return
		}
		next := w.conn.GetState()
		w.events.Emit(ctx, "network", "Connectivity changed",
			telemetry.F("from", state.String()),
			telemetry.F("to", next.String()),
		)
		state = next
		if state == connectivity.Shutdown {
			return
		}
	}
}
