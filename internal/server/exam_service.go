package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ExamServiceName is the fully qualified gRPC service name.
const ExamServiceName = "examstw.v1.ExamService"

const (
	methodListExams   = "/" + ExamServiceName + "/ListExams"
	methodGetExam     = "/" + ExamServiceName + "/GetExam"
	methodExportXLSX  = "/" + ExamServiceName + "/ExportXLSX"
	methodListJobs    = "/" + ExamServiceName + "/ListJobs"
	methodListLayouts = "/" + ExamServiceName + "/ListLayouts"
)

// ExamServiceServer is the server API for examstw.v1.ExamService. Every
// message is a protobuf well-known type, so no generated code is needed.
type ExamServiceServer interface {
	ListExams(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetExam(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ExportXLSX(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLayouts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterExamServiceServer(s grpc.ServiceRegistrar, srv ExamServiceServer) {
	s.RegisterService(&ExamServiceDesc, srv)
}

// unary builds a method handler for request type Req.
func unary[Req any](fullMethod string, call func(ExamServiceServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExamServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExamServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ExamServiceDesc = grpc.ServiceDesc{
	ServiceName: ExamServiceName,
	HandlerType: (*ExamServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListExams",
			Handler: unary(methodListExams, func(s ExamServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.ListExams(ctx, in)
			}),
		},
		{
			MethodName: "GetExam",
			Handler: unary(methodGetExam, func(s ExamServiceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.GetExam(ctx, in)
			}),
		},
		{
			MethodName: "ExportXLSX",
			Handler: unary(methodExportXLSX, func(s ExamServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.ExportXLSX(ctx, in)
			}),
		},
		{
			MethodName: "ListJobs",
			Handler: unary(methodListJobs, func(s ExamServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.ListJobs(ctx, in)
			}),
		},
		{
			MethodName: "ListLayouts",
			Handler: unary(methodListLayouts, func(s ExamServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.ListLayouts(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "examstw/v1/exams.proto",
}

// ExamServiceClient is the client API for examstw.v1.ExamService.
type ExamServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewExamServiceClient(cc grpc.ClientConnInterface) *ExamServiceClient {
	return &ExamServiceClient{cc: cc}
}

func (c *ExamServiceClient) ListExams(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListExams, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExamServiceClient) GetExam(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetExam, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExamServiceClient) ExportXLSX(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodExportXLSX, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExamServiceClient) ListJobs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListJobs, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExamServiceClient) ListLayouts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListLayouts, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
