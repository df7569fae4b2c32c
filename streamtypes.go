package connectretry

import "context"

// MessageSource is the Go analogue of the spec's "source async
// iterable": a single logical producer of messages that may suspend on
// Next, and that the caller must pull from one request at a time. Next
// returns done=true, err=nil at a clean end of stream.
type MessageSource interface {
	Next(ctx context.Context) (msg any, done bool, err error)
}

// MessageSourceFunc adapts a plain function to a MessageSource.
type MessageSourceFunc func(ctx context.Context) (any, bool, error)

// Next implements MessageSource.
func (f MessageSourceFunc) Next(ctx context.Context) (any, bool, error) {
	return f(ctx)
}

// StreamRequest is what the streaming interceptor chain passes down to
// the transport. For a bidirectional-streaming call, Message is the
// (possibly rewound) source of request messages. For a server-streaming
// call there is exactly one request message, carried in SingleMessage,
// and Message is nil.
type StreamRequest struct {
	Spec          Spec
	Header        Header
	Message       MessageSource
	SingleMessage any
}

// StreamResponse is what the transport hands back: a header set plus
// the live response message source.
type StreamResponse struct {
	Header   Header
	Messages MessageSource
}
