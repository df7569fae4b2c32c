// Package grpcadapter binds the transport-agnostic retry core to a
// real google.golang.org/grpc client connection. The core packages
// (connectretry, retry, pkg/rewind) know nothing about grpc; apart from
// this package, only the server-side auxiliary package imports it.
//
// Request and response messages are carried as plain proto.Message
// values (for example google.golang.org/protobuf/types/known/wrapperspb
// values), so no service stubs need to be generated from a .proto file.
package grpcadapter

import (
	"context"
	"net/textproto"
	"strings"

	connectretry "github.com/grpc-guardian/connect-retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

// NewUnaryFunc builds a connectretry.UnaryFunc that invokes method on
// cc. req.Message and the value newReply() returns must both be
// proto.Message (for example a wrapperspb.StringValue).
func NewUnaryFunc(cc *grpc.ClientConn, newReply func() proto.Message) connectretry.UnaryFunc {
	return func(ctx context.Context, req *connectretry.UnaryRequest) (*connectretry.UnaryResponse, error) {
		args, ok := req.Message.(proto.Message)
		if !ok {
			return nil, connectretry.NewTransportError(connectretry.CodeInvalidArgument, "grpcadapter: request message is not a proto.Message")
		}

		outCtx := ctx
		if req.Header != nil {
			outCtx = metadata.NewOutgoingContext(ctx, headerToMetadata(req.Header))
		}

		var respHeader metadata.MD
		reply := newReply()
		err := cc.Invoke(outCtx, req.Spec.Method, args, reply, grpc.Header(&respHeader))
		if err != nil {
			return nil, asTransportError(err)
		}

		return &connectretry.UnaryResponse{
			Header:  metadataToHeader(respHeader),
			Message: reply,
		}, nil
	}
}

// asTransportError converts a grpc status error into the retry core's
// transport-agnostic TransportError. google.golang.org/grpc/codes and
// this module's Code enum share the same ordinal layout, so the
// conversion is a direct cast.
func asTransportError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	return connectretry.NewTransportError(connectretry.Code(st.Code()), st.Message())
}

// ToGRPCError is the inverse of asTransportError, used by test/demo
// servers that want to hand back a connectretry.TransportError as a
// real grpc status error.
func ToGRPCError(err error) error {
	te, ok := connectretry.AsTransportError(err)
	if !ok {
		return err
	}
	return status.Error(codes.Code(te.Code), te.Message)
}

func headerToMetadata(h connectretry.Header) metadata.MD {
	md := metadata.MD{}
	for k, values := range h {
		lk := strings.ToLower(k)
		md[lk] = append(md[lk], values...)
	}
	return md
}

func metadataToHeader(md metadata.MD) connectretry.Header {
	h := connectretry.Header{}
	for k, values := range md {
		h[textproto.CanonicalMIMEHeaderKey(k)] = append(h[textproto.CanonicalMIMEHeaderKey(k)], values...)
	}
	return h
}
