package connectretry

import "strings"

// Rule is a single retryable-error rule from the dynamic config oracle.
// A rule matches an error when every present field matches; ErrorMessage
// and Method are optional filters.
type Rule struct {
	Code         Code
	ErrorMessage *string
	Method       *string
}

// Matches reports whether the rule applies to an error with the given
// code, message and method name.
func (r Rule) Matches(code Code, message, method string) bool {
	if r.Code != code {
		return false
	}
	if r.ErrorMessage != nil && !strings.Contains(message, *r.ErrorMessage) {
		return false
	}
	if r.Method != nil && *r.Method != method {
		return false
	}
	return true
}

// DynamicConfig is the shape a dynamic-config oracle returns: an
// ordered list of retryable-error rules. An empty list disables retry
// entirely.
type DynamicConfig struct {
	RetriableErrors []Rule
}

// DefaultDynamicConfig is the deterministic fallback used when the
// oracle has no override, mirroring the conventional retryable set.
func DefaultDynamicConfig() DynamicConfig {
	return DynamicConfig{
		RetriableErrors: []Rule{
			{Code: CodeUnavailable},
			{Code: CodeInternal},
			{Code: CodeDeadlineExceeded},
		},
	}
}
