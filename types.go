package connectretry

import (
	"errors"
	"net/http"
)

// MethodKind identifies the RPC shape of a method. The retry engines
// only ever branch on this, never on a concrete transport's method
// descriptor.
type MethodKind int

const (
	MethodKindUnary MethodKind = iota
	MethodKindClientStream
	MethodKindServerStream
	MethodKindBidiStream
)

func (k MethodKind) String() string {
	switch k {
	case MethodKindUnary:
		return "unary"
	case MethodKindClientStream:
		return "client_stream"
	case MethodKindServerStream:
		return "server_stream"
	case MethodKindBidiStream:
		return "bidi_stream"
	default:
		return "unknown"
	}
}

// Spec is the opaque method handle the retry engines inspect: method
// kind and name, nothing about codec or connection.
type Spec struct {
	Method string
	Kind   MethodKind
}

// Header is the per-call header set the engines read for retry
// configuration and may write an attempt counter back onto. It is
// intentionally the same shape Connect-style transports already use,
// so no adaptation is needed at the transport boundary.
type Header = http.Header

// Code is an RPC status code, carried as a small tagged value instead
// of a concrete transport package's code type so the retry core never
// imports a transport. The names and the closed "never retry" set
// mirror the conventional gRPC/Connect status codes.
type Code int

const (
	CodeOK Code = iota
	CodeCanceled
	CodeUnknown
	CodeInvalidArgument
	CodeDeadlineExceeded
	CodeNotFound
	CodeAlreadyExists
	CodePermissionDenied
	CodeResourceExhausted
	CodeFailedPrecondition
	CodeAborted
	CodeOutOfRange
	CodeUnimplemented
	CodeInternal
	CodeUnavailable
	CodeDataLoss
	CodeUnauthenticated
)

var codeNames = map[Code]string{
	CodeOK:                 "ok",
	CodeCanceled:           "canceled",
	CodeUnknown:            "unknown",
	CodeInvalidArgument:    "invalid_argument",
	CodeDeadlineExceeded:   "deadline_exceeded",
	CodeNotFound:           "not_found",
	CodeAlreadyExists:      "already_exists",
	CodePermissionDenied:   "permission_denied",
	CodeResourceExhausted:  "resource_exhausted",
	CodeFailedPrecondition: "failed_precondition",
	CodeAborted:            "aborted",
	CodeOutOfRange:         "out_of_range",
	CodeUnimplemented:      "unimplemented",
	CodeInternal:           "internal",
	CodeUnavailable:        "unavailable",
	CodeDataLoss:           "data_loss",
	CodeUnauthenticated:    "unauthenticated",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// TransportError is the "TransportError" entry of the error taxonomy:
// a structured error carrying an RPC status code. A plain error
// without this type is a "GenericError" and is never retried.
type TransportError struct {
	Code    Code
	Message string
}

func (e *TransportError) Error() string {
	return e.Message
}

// NewTransportError builds a TransportError with the given code and
// message.
func NewTransportError(code Code, message string) *TransportError {
	return &TransportError{Code: code, Message: message}
}

// AsTransportError reports whether err (or one it wraps) is a
// TransportError, returning it if so.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
