package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "essayfeedback.v1.FeedbackService"

// Method names of the feedback service.
const (
	MethodRegisterUpload = "RegisterUpload"
	MethodEvaluate       = "Evaluate"
	MethodNextRound      = "NextRound"
	MethodIngestFeedback = "IngestFeedback"
	MethodStatus         = "Status"
	MethodListUploads    = "ListUploads"
	MethodExportFeedback = "ExportFeedback"
)

// FeedbackServer is the server API. Every message is a google.protobuf.Struct.
type FeedbackServer interface {
	RegisterUpload(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NextRound(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListUploads(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(FeedbackServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FeedbackServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(FeedbackServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FeedbackServiceDesc describes the service for grpc.Server.RegisterService.
var FeedbackServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedbackServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegisterUpload, FeedbackServer.RegisterUpload),
		unary(MethodEvaluate, FeedbackServer.Evaluate),
		unary(MethodNextRound, FeedbackServer.NextRound),
		unary(MethodIngestFeedback, FeedbackServer.IngestFeedback),
		unary(MethodStatus, FeedbackServer.Status),
		unary(MethodListUploads, FeedbackServer.ListUploads),
		unary(MethodExportFeedback, FeedbackServer.ExportFeedback),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "essayfeedback/v1/feedback.proto",
}

func RegisterFeedbackServer(s grpc.ServiceRegistrar, srv FeedbackServer) {
	s.RegisterService(&FeedbackServiceDesc, srv)
}

func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Client calls the feedback service over any client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with fields as the request Struct.
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
