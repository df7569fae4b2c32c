package retry

// EngineOptions holds the opt-in behaviors of the unary retry engine,
// configured via Option functions.
type EngineOptions struct {
	AttemptHeader bool
}

// Option is a functional option for NewUnaryInterceptor.
// NewStreamInterceptor takes no options and never stamps the attempt
// header.
type Option func(*EngineOptions)

// WithAttemptHeader makes the engine stamp X-Cursor-RetryInterceptor-Attempt
// onto the outgoing request headers before each retried invocation, so
// the server/observability stack can see which attempt produced a
// given call. Off by default: this is pure observability and never
// changes a retry or classification decision.
func WithAttemptHeader() Option {
	return func(o *EngineOptions) { o.AttemptHeader = true }
}

func resolveOptions(opts []Option) EngineOptions {
	var o EngineOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
