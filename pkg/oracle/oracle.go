// Package oracle defines the two read-only, async collaborators the
// retry engines consult once per call: a boolean feature-gate lookup
// and a dynamic-config lookup. Both are injected at construction time;
// the retry core holds no reference to how they are backed.
package oracle

import (
	"context"

	connectretry "github.com/grpc-guardian/connect-retry"
)

// FeatureGateDisabledName is the fixed gate the retry engines consult
// to force pass-through behavior, regardless of per-call headers.
const FeatureGateDisabledName = "retry_interceptor_disabled"

// FeatureGate resolves a named boolean feature gate.
type FeatureGate interface {
	IsEnabled(ctx context.Context, name string) bool
}

// DynamicConfigProvider resolves the current retryable-error rule set.
type DynamicConfigProvider interface {
	DynamicConfig(ctx context.Context) connectretry.DynamicConfig
}

// StaticFeatureGate is a FeatureGate backed by a fixed map, useful for
// tests and for callers with no remote flagging system.
type StaticFeatureGate map[string]bool

func (g StaticFeatureGate) IsEnabled(_ context.Context, name string) bool {
	return g[name]
}

// StaticDynamicConfigProvider always returns the same DynamicConfig.
type StaticDynamicConfigProvider struct {
	Config connectretry.DynamicConfig
}

func (p StaticDynamicConfigProvider) DynamicConfig(_ context.Context) connectretry.DynamicConfig {
	return p.Config
}

// DefaultDynamicConfigProvider returns connectretry.DefaultDynamicConfig(),
// the deterministic fallback used when no oracle is reachable.
func DefaultDynamicConfigProvider() StaticDynamicConfigProvider {
	return StaticDynamicConfigProvider{Config: connectretry.DefaultDynamicConfig()}
}

// NoopFeatureGate reports every gate as disabled (false): it never
// forces pass-through. It behaves the same as passing a nil gate to
// the retry engines.
type NoopFeatureGate struct{}

func (NoopFeatureGate) IsEnabled(context.Context, string) bool {
	return false
}
