package connectretry

import "context"

// UnaryFunc is a transport-agnostic unary invocation: it knows nothing
// about the transport or codec that produced it, only a request/response
// pair keyed by Spec.
type UnaryFunc func(ctx context.Context, req *UnaryRequest) (*UnaryResponse, error)

// UnaryRequest is what a unary interceptor chain passes down to the
// transport.
type UnaryRequest struct {
	Spec    Spec
	Header  Header
	Message any
}

// UnaryResponse is what the transport hands back up the chain.
type UnaryResponse struct {
	Header  Header
	Message any
}

// UnaryInterceptor wraps a UnaryFunc with additional behavior, the same
// shape a Connect-style unary client interceptor takes.
type UnaryInterceptor func(next UnaryFunc) UnaryFunc

// StreamFunc is a transport-agnostic streaming invocation.
type StreamFunc func(ctx context.Context, req *StreamRequest) (*StreamResponse, error)

// StreamInterceptor wraps a StreamFunc.
type StreamInterceptor func(next StreamFunc) StreamFunc

// UnaryChain composes unary interceptors into a single UnaryFunc
// wrapper. Interceptors run in the order given: the first interceptor
// sees the call first and the last interceptor is nearest the
// transport, mirroring the teacher's middleware-chain ordering.
type UnaryChain struct {
	interceptors []UnaryInterceptor
}

// NewUnaryChain creates a new unary interceptor chain.
func NewUnaryChain(interceptors ...UnaryInterceptor) *UnaryChain {
	return &UnaryChain{interceptors: interceptors}
}

// Append adds interceptors to the end of the chain (closer to the
// transport).
func (c *UnaryChain) Append(interceptors ...UnaryInterceptor) *UnaryChain {
	c.interceptors = append(c.interceptors, interceptors...)
	return c
}

// Prepend adds interceptors to the beginning of the chain (closer to
// the caller).
func (c *UnaryChain) Prepend(interceptors ...UnaryInterceptor) *UnaryChain {
	c.interceptors = append(append([]UnaryInterceptor{}, interceptors...), c.interceptors...)
	return c
}

// Wrap builds the final UnaryFunc by applying each interceptor around
// next, outermost first.
func (c *UnaryChain) Wrap(next UnaryFunc) UnaryFunc {
	wrapped := next
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		wrapped = c.interceptors[i](wrapped)
	}
	return wrapped
}

// StreamChain is the streaming analogue of UnaryChain.
type StreamChain struct {
	interceptors []StreamInterceptor
}

// NewStreamChain creates a new stream interceptor chain.
func NewStreamChain(interceptors ...StreamInterceptor) *StreamChain {
	return &StreamChain{interceptors: interceptors}
}

// Append adds interceptors to the end of the chain.
func (c *StreamChain) Append(interceptors ...StreamInterceptor) *StreamChain {
	c.interceptors = append(c.interceptors, interceptors...)
	return c
}

// Wrap builds the final StreamFunc by applying each interceptor around
// next, outermost first.
func (c *StreamChain) Wrap(next StreamFunc) StreamFunc {
	wrapped := next
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		wrapped = c.interceptors[i](wrapped)
	}
	return wrapped
}
