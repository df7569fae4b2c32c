package retry

import (
	"context"
	"strconv"

	connectretry "github.com/grpc-guardian/connect-retry"
	"github.com/grpc-guardian/connect-retry/pkg/oracle"
)

// Header names the engines read for per-call configuration, bit-exact
// with the values the server-side and SDK halves of this protocol
// already agree on.
const (
	HeaderEnabled     = "X-Cursor-RetryInterceptor-Enabled"
	HeaderMaxRetries  = "X-Cursor-RetryInterceptor-MaxRetries"
	HeaderBaseDelayMs = "X-Cursor-RetryInterceptor-BaseDelayMs"
	HeaderMaxDelayMs  = "X-Cursor-RetryInterceptor-MaxDelayMs"

	// HeaderAttempt is stamped onto the outgoing header set of every
	// retried attempt (attempt > 0), 0-based, when the engine was built
	// with WithAttemptHeader. It is additive telemetry for the server
	// side; nothing in the core reads it back.
	HeaderAttempt = "X-Cursor-RetryInterceptor-Attempt"
)

// Config is the per-call retry configuration, resolved once at the
// start of a call from defaults, per-call headers, and the killswitch.
type Config struct {
	Enabled     bool
	MaxRetries  int
	BaseDelayMs int
	MaxDelayMs  int
}

// DefaultConfig is the conventional starting point before any header
// or killswitch override is applied.
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		MaxRetries:  1,
		BaseDelayMs: 100,
		MaxDelayMs:  10000,
	}
}

// ResolveConfig applies header overrides to defaults, then consults
// the feature-gate killswitch. Invalid header values are equivalent to
// absent ones: the corresponding field keeps its prior value. A nil
// gate is treated as never disabling.
func ResolveConfig(ctx context.Context, defaults Config, header connectretry.Header, gate oracle.FeatureGate) Config {
	cfg := defaults

	if header.Get(HeaderEnabled) == "true" {
		cfg.Enabled = true
	}

	if v, ok := parseNonNegativeInt(header.Get(HeaderMaxRetries)); ok {
		cfg.MaxRetries = v
	}
	if v, ok := parseNonNegativeInt(header.Get(HeaderBaseDelayMs)); ok && v >= 1 {
		cfg.BaseDelayMs = v
	}
	if v, ok := parseNonNegativeInt(header.Get(HeaderMaxDelayMs)); ok {
		cfg.MaxDelayMs = v
	}

	if gate != nil && gate.IsEnabled(ctx, oracle.FeatureGateDisabledName) {
		cfg.Enabled = false
	}

	return cfg
}

// parseNonNegativeInt parses s as a non-negative base-10 integer. An
// empty, malformed, or negative value reports ok=false so the caller
// keeps its current value.
func parseNonNegativeInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
