package auxiliary

import (
	"context"
	"testing"
	"time"

	"github.com/grpc-guardian/connect-retry/pkg/telemetry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAbortTimeout_ReturnsDeadlineExceededPastDefault(t *testing.T) {
	interceptor := AbortTimeout(WithDefaultAbortTimeout(10 * time.Millisecond))

	slow := func(ctx context.Context, req any) (any, error) {
		select {
		case <-time.After(50 * time.Millisecond):
			return "too slow", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/demo.Svc/Slow"}, slow)
	if status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestAbortTimeout_PerMethodOverrideWins(t *testing.T) {
	interceptor := AbortTimeout(
		WithDefaultAbortTimeout(time.Hour),
		WithMethodAbortTimeout("/demo.Svc/Slow", 10*time.Millisecond),
	)

	slow := func(ctx context.Context, req any) (any, error) {
		select {
		case <-time.After(50 * time.Millisecond):
			return "too slow", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/demo.Svc/Slow"}, slow)
	if status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("expected the per-method override to fire, got %v", err)
	}
}

func TestAbortTimeout_FastHandlerPassesThrough(t *testing.T) {
	interceptor := AbortTimeout(WithDefaultAbortTimeout(time.Second))

	fast := func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	}

	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/demo.Svc/Fast"}, fast)
	if err != nil || resp != "ok" {
		t.Fatalf("expected pass-through success, got resp=%v err=%v", resp, err)
	}
}

func TestAbortTimeout_LogsOnAbort(t *testing.T) {
	rec := &recordingAbortLog{}
	interceptor := AbortTimeout(WithDefaultAbortTimeout(10*time.Millisecond), WithAbortTimeoutLog(rec))

	slow := func(ctx context.Context, req any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/demo.Svc/Slow"}, slow)
	if len(rec.warnings) != 1 {
		t.Fatalf("expected exactly one warning logged, got %d", len(rec.warnings))
	}
}

type recordingAbortLog struct {
	warnings []string
}

func (r *recordingAbortLog) Info(msg string, fields ...telemetry.Field)  {}
func (r *recordingAbortLog) Error(msg string, fields ...telemetry.Field) {}
func (r *recordingAbortLog) Warn(msg string, fields ...telemetry.Field) {
	r.warnings = append(r.warnings, msg)
}
