package retry

import connectretry "github.com/grpc-guardian/connect-retry"

// neverRetryCodes is the closed set of client-error codes that are
// never retried regardless of the dynamic config, checked before the
// rule table is consulted.
var neverRetryCodes = map[connectretry.Code]bool{
	connectretry.CodeCanceled:        true,
	connectretry.CodeInvalidArgument: true,
}

// ShouldRetryOnError classifies an error for a given method against
// the dynamic config's rule table. It is a pure function of its
// arguments: for fixed inputs, successive calls agree.
func ShouldRetryOnError(err error, method string, dynamicConfig connectretry.DynamicConfig) bool {
	te, ok := connectretry.AsTransportError(err)
	if !ok {
		// A GenericError (no code) is never retryable.
		return false
	}
	if neverRetryCodes[te.Code] {
		return false
	}
	for _, rule := range dynamicConfig.RetriableErrors {
		if rule.Matches(te.Code, te.Message, method) {
			return true
		}
	}
	return false
}
