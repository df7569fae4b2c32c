// Package auxiliary holds the "network-change and abort-timeout
// interceptors that appear in the repository but share no state with
// the retry core" (spec §1). AbortTimeout is a plain
// google.golang.org/grpc.UnaryServerInterceptor composed with
// grpc.ChainUnaryInterceptor, never with the retry core's own chain.go;
// NetworkChangeWatcher is not an interceptor but an observer of a
// grpc.ClientConn's connectivity state.
package auxiliary

import (
	"context"
	"time"

	"github.com/grpc-guardian/connect-retry/pkg/telemetry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AbortTimeoutConfig configures AbortTimeout.
type AbortTimeoutConfig struct {
	Default   time.Duration
	PerMethod map[string]time.Duration
	Log       telemetry.DebugLog
}

// AbortTimeoutOption is a functional option for AbortTimeoutConfig.
type AbortTimeoutOption func(*AbortTimeoutConfig)

// WithDefaultAbortTimeout sets the deadline applied when a method has
// no override in PerMethod.
func WithDefaultAbortTimeout(d time.Duration) AbortTimeoutOption {
	return func(c *AbortTimeoutConfig) { c.Default = d }
}

// WithMethodAbortTimeout overrides the deadline for a single method.
func WithMethodAbortTimeout(method string, d time.Duration) AbortTimeoutOption {
	return func(c *AbortTimeoutConfig) {
		if c.PerMethod == nil {
			c.PerMethod = make(map[string]time.Duration)
		}
		c.PerMethod[method] = d
	}
}

// WithAbortTimeoutLog routes abort notices through a
// telemetry.DebugLog instead of discarding them.
func WithAbortTimeoutLog(log telemetry.DebugLog) AbortTimeoutOption {
	return func(c *AbortTimeoutConfig) { c.Log = log }
}

// AbortTimeout bounds how long a unary handler may run before the
// server gives up on it and returns codes.DeadlineExceeded. It has no
// knowledge of retry attempts, backoff, or the X-Cursor-RetryInterceptor-*
// headers: a call aborted here looks, to the client-side retry engine,
// like any other DeadlineExceeded transport error.
func AbortTimeout(opts ...AbortTimeoutOption) grpc.UnaryServerInterceptor {
	cfg := &AbortTimeoutConfig{
		Default: 10 * time.Second,
		Log:     telemetry.NoopDebugLog{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		deadline := cfg.Default
		if d, ok := cfg.PerMethod[info.FullMethod]; ok {
			deadline = d
		}

		ctx, cancel := context.WithTimeout(ctx, deadline)
		defer cancel()

		type outcome struct {
			resp any
			err  error
		}
		done := make(chan outcome, 1)
		go func() {
			resp, err := handler(ctx, req)
			done <- outcome{resp, err}
		}()

		select {
		case o := <-done:
			return o.resp, o.err
		case <-ctx.Done():
			cfg.Log.Warn("aborting call past deadline",
				telemetry.F("method", info.FullMethod),
				telemetry.F("deadline", deadline.String()),
			)
			return nil, status.Errorf(codes.DeadlineExceeded, "%s aborted after %v", info.FullMethod, deadline)
		}
	}
}
