// Package connectretry defines the transport-agnostic types shared by
// the retry interceptors in the retry package: the opaque method
// handle (Spec), the RPC status taxonomy (Code, TransportError), and
// the dynamic retry-rule shape a config oracle hands back. Nothing in
// this package imports a concrete transport or codec.
package connectretry
