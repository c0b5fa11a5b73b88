// Package intakev1 declares the intakedesk.v1.Intake gRPC service. Messages
// are protobuf well-known types; internal/convert defines their layout.
package intakev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified service name.
const ServiceName = "intakedesk.v1.Intake"

// Full method names.
const (
	Intake_Register_FullMethodName     = "/" + ServiceName + "/Register"
	Intake_Login_FullMethodName        = "/" + ServiceName + "/Login"
	Intake_SaveRecord_FullMethodName   = "/" + ServiceName + "/SaveRecord"
	Intake_GetRecord_FullMethodName    = "/" + ServiceName + "/GetRecord"
	Intake_DeleteRecord_FullMethodName = "/" + ServiceName + "/DeleteRecord"
	Intake_ListRecords_FullMethodName  = "/" + ServiceName + "/ListRecords"
	Intake_WatchRecords_FullMethodName = "/" + ServiceName + "/WatchRecords"
)

// IntakeServer is the server API of the Intake service.
type IntakeServer interface {
	// Register takes a registration struct and returns the new user id.
	Register(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	// Login takes a credentials struct and returns a session struct.
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// SaveRecord creates or merge-updates a record and returns its id.
	SaveRecord(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	GetRecord(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	DeleteRecord(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	// ListRecords returns records matching a search term, newest edit first.
	ListRecords(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	// WatchRecords streams the result set of a search term on every change.
	WatchRecords(*wrapperspb.StringValue, grpc.ServerStreamingServer[structpb.ListValue]) error
}

// UnimplementedIntakeServer returns Unimplemented for every method.
type UnimplementedIntakeServer struct{}

func (UnimplementedIntakeServer) Register(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}

func (UnimplementedIntakeServer) Login(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}

func (UnimplementedIntakeServer) SaveRecord(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method SaveRecord not implemented")
}

func (UnimplementedIntakeServer) GetRecord(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRecord not implemented")
}

func (UnimplementedIntakeServer) DeleteRecord(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteRecord not implemented")
}

func (UnimplementedIntakeServer) ListRecords(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method ListRecords not implemented")
}

func (UnimplementedIntakeServer) WatchRecords(*wrapperspb.StringValue, grpc.ServerStreamingServer[structpb.ListValue]) error {
	return status.Error(codes.Unimplemented, "method WatchRecords not implemented")
}

// RegisterIntakeServer registers srv on s.
func RegisterIntakeServer(s grpc.ServiceRegistrar, srv IntakeServer) {
	s.RegisterService(&Intake_ServiceDesc, srv)
}

func unary[Req proto.Message, Res proto.Message](
	fullMethod string, newReq func() Req, call func(IntakeServer, context.Context, Req) (Res, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IntakeServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IntakeServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newStruct() *structpb.Struct { return new(structpb.Struct) }
func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

func watchRecordsHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(IntakeServer).WatchRecords(in,
		&grpc.GenericServerStream[wrapperspb.StringValue, structpb.ListValue]{ServerStream: stream})
}

// Intake_ServiceDesc describes the Intake service for grpc.Server.
var Intake_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IntakeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(Intake_Register_FullMethodName, newStruct, IntakeServer.Register)},
		{MethodName: "Login", Handler: unary(Intake_Login_FullMethodName, newStruct, IntakeServer.Login)},
		{MethodName: "SaveRecord", Handler: unary(Intake_SaveRecord_FullMethodName, newStruct, IntakeServer.SaveRecord)},
		{MethodName: "GetRecord", Handler: unary(Intake_GetRecord_FullMethodName, newString, IntakeServer.GetRecord)},
		{MethodName: "DeleteRecord", Handler: unary(Intake_DeleteRecord_FullMethodName, newString, IntakeServer.DeleteRecord)},
		{MethodName: "ListRecords", Handler: unary(Intake_ListRecords_FullMethodName, newString, IntakeServer.ListRecords)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchRecords", Handler: watchRecordsHandler, ServerStreams: true},
	},
	Metadata: "intakedesk/v1/intake.proto",
}

// IntakeClient is the client API of the Intake service.
type IntakeClient struct{ cc grpc.ClientConnInterface }

// NewIntakeClient wraps a connection.
func NewIntakeClient(cc grpc.ClientConnInterface) *IntakeClient { return &IntakeClient{cc: cc} }

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in proto.Message, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IntakeClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, Intake_Register_FullMethodName, in, opts)
}

func (c *IntakeClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, Intake_Login_FullMethodName, in, opts)
}

func (c *IntakeClient) SaveRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, Intake_SaveRecord_FullMethodName, in, opts)
}

func (c *IntakeClient) GetRecord(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, Intake_GetRecord_FullMethodName, in, opts)
}

func (c *IntakeClient) DeleteRecord(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, Intake_DeleteRecord_FullMethodName, in, opts)
}

func (c *IntakeClient) ListRecords(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, Intake_ListRecords_FullMethodName, in, opts)
}

// WatchRecords opens the server stream for a search term.
func (c *IntakeClient) WatchRecords(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.ListValue], error) {
	stream, err := c.cc.NewStream(ctx, &Intake_ServiceDesc.Streams[0], Intake_WatchRecords_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, structpb.ListValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
