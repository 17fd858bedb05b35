package server

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// examServiceFile describes ExamService the way protoc would, so that
// server reflection can list and describe it.
func examServiceFile() *descriptorpb.FileDescriptorProto {
	method := func(name string, in, out proto.Message) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String("." + string(in.ProtoReflect().Descriptor().FullName())),
			OutputType: proto.String("." + string(out.ProtoReflect().Descriptor().FullName())),
		}
	}
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(ExamServiceDesc.Metadata.(string)),
		Package: proto.String("examstw.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			emptypb.File_google_protobuf_empty_proto.Path(),
			structpb.File_google_protobuf_struct_proto.Path(),
			wrapperspb.File_google_protobuf_wrappers_proto.Path(),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("ExamService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("ListExams", &structpb.Struct{}, &structpb.Struct{}),
				method("GetExam", &wrapperspb.StringValue{}, &structpb.Struct{}),
				method("ExportXLSX", &structpb.Struct{}, &wrapperspb.BytesValue{}),
				method("ListJobs", &structpb.Struct{}, &structpb.Struct{}),
				method("ListLayouts", &emptypb.Empty{}, &structpb.Struct{}),
			},
		}},
	}
}

func registerExamServiceFile(files *protoregistry.Files) (protoreflect.FileDescriptor, error) {
	fd, err := protodesc.NewFile(examServiceFile(), files)
	if err != nil {
		return nil, fmt.Errorf("build %s descriptor: %w", ExamServiceName, err)
	}
	if err := files.RegisterFile(fd); err != nil {
		return nil, fmt.Errorf("register %s descriptor: %w", ExamServiceName, err)
	}
	return fd, nil
}

func init() {
	if _, err := registerExamServiceFile(protoregistry.GlobalFiles); err != nil {
		panic(err)
	}
}
