// Package faultinject provides chaos-engineering transports for
// exercising the retry engines without a real, flaky network: latency,
// structured errors, and timeouts can be injected in front of any
// connectretry.UnaryFunc or connectretry.StreamFunc.
package faultinject

import (
	"context"
	"math/rand"
	"time"

	connectretry "github.com/grpc-guardian/connect-retry"
)

// Config holds the fault-injection knobs. Each category injects
// independently and at most once per call, in the order latency, then
// error, then timeout.
type Config struct {
	LatencyEnabled     bool
	LatencyMin         time.Duration
	LatencyMax         time.Duration
	LatencyProbability float64

	ErrorEnabled     bool
	ErrorCodes       []connectretry.Code
	ErrorProbability float64

	TimeoutEnabled     bool
	TimeoutDuration    time.Duration
	TimeoutProbability float64

	// EnableCondition gates the whole config; chaos is skipped entirely
	// when it returns false. Defaults to always-on.
	EnableCondition func() bool
}

// Option is a functional option for Config.
type Option func(*Config)

// WithLatency injects a random delay in [min, max) with the given
// probability before the call proceeds.
func WithLatency(min, max time.Duration, probability float64) Option {
	return func(c *Config) {
		c.LatencyEnabled = true
		c.LatencyMin = min
		c.LatencyMax = max
		c.LatencyProbability = probability
	}
}

// WithErrors returns one of codes uniformly at random instead of
// calling through, with the given probability.
func WithErrors(codes []connectretry.Code, probability float64) Option {
	return func(c *Config) {
		c.ErrorEnabled = true
		c.ErrorCodes = codes
		c.ErrorProbability = probability
	}
}

// WithTimeout bounds the call's context to duration with the given
// probability.
func WithTimeout(duration time.Duration, probability float64) Option {
	return func(c *Config) {
		c.TimeoutEnabled = true
		c.TimeoutDuration = duration
		c.TimeoutProbability = probability
	}
}

// WithCondition gates the entire config on condition.
func WithCondition(condition func() bool) Option {
	return func(c *Config) {
		c.EnableCondition = condition
	}
}

func newConfig(opts []Option) *Config {
	c := &Config{EnableCondition: func() bool { return true }}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Unary wraps real so that, on each call, latency/error/timeout faults
// may be injected before real is invoked, so that real can stand in
// as a deliberately flaky transport beneath the unary retry engine.
func Unary(real connectretry.UnaryFunc, opts ...Option) connectretry.UnaryFunc {
	config := newConfig(opts)

	return func(ctx context.Context, req *connectretry.UnaryRequest) (*connectretry.UnaryResponse, error) {
		if !config.EnableCondition() {
			return real(ctx, req)
		}

		if config.LatencyEnabled && shouldInject(config.LatencyProbability) {
			delay := randomDuration(config.LatencyMin, config.LatencyMax)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if config.ErrorEnabled && shouldInject(config.ErrorProbability) {
			code := config.ErrorCodes[rand.Intn(len(config.ErrorCodes))]
			return nil, connectretry.NewTransportError(code, "fault injection: simulated error")
		}

		if config.TimeoutEnabled && shouldInject(config.TimeoutProbability) {
			newCtx, cancel := context.WithTimeout(ctx, config.TimeoutDuration)
			defer cancel()
			return real(newCtx, req)
		}

		return real(ctx, req)
	}
}

// Stream is the streaming analogue of Unary. Faults are injected once,
// before real is invoked; once the call is underway, messages flow
// through untouched.
func Stream(real connectretry.StreamFunc, opts ...Option) connectretry.StreamFunc {
	config := newConfig(opts)

	return func(ctx context.Context, req *connectretry.StreamRequest) (*connectretry.StreamResponse, error) {
		if !config.EnableCondition() {
			return real(ctx, req)
		}

		if config.LatencyEnabled && shouldInject(config.LatencyProbability) {
			delay := randomDuration(config.LatencyMin, config.LatencyMax)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if config.ErrorEnabled && shouldInject(config.ErrorProbability) {
			code := config.ErrorCodes[rand.Intn(len(config.ErrorCodes))]
			return nil, connectretry.NewTransportError(code, "fault injection: simulated error")
		}

		if config.TimeoutEnabled && shouldInject(config.TimeoutProbability) {
			newCtx, cancel := context.WithTimeout(ctx, config.TimeoutDuration)
			defer cancel()
			return real(newCtx, req)
		}

		return real(ctx, req)
	}
}

func shouldInject(probability float64) bool {
	return rand.Float64() < probability
}

func randomDuration(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// allRetryableCodes lists every code the default dynamic config, and
// the never-retry short-circuit, treat as retryable.
var allRetryableCodes = []connectretry.Code{
	connectretry.CodeUnavailable,
	connectretry.CodeInternal,
	connectretry.CodeDeadlineExceeded,
}

// Flaky injects occasional latency and retryable errors, simulating a
// mildly unreliable network.
func Flaky(real connectretry.UnaryFunc, probability float64) connectretry.UnaryFunc {
	return Unary(real,
		WithLatency(50*time.Millisecond, 500*time.Millisecond, probability),
		WithErrors(allRetryableCodes, probability/2),
	)
}

// Overloaded injects heavy latency and resource-exhaustion-shaped
// errors, simulating a struggling downstream service.
func Overloaded(real connectretry.UnaryFunc, probability float64) connectretry.UnaryFunc {
	return Unary(real,
		WithLatency(1*time.Second, 5*time.Second, probability),
		WithErrors([]connectretry.Code{connectretry.CodeResourceExhausted, connectretry.CodeUnavailable}, probability/2),
	)
}
