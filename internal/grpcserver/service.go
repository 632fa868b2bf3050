package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the tracker gRPC service.
const ServiceName = "tracker.ExerciseTracker"

const (
	MethodCreateUser  = "/" + ServiceName + "/CreateUser"
	MethodListUsers   = "/" + ServiceName + "/ListUsers"
	MethodAddExercise = "/" + ServiceName + "/AddExercise"
	MethodGetLog      = "/" + ServiceName + "/GetLog"
)

// TrackerServer is the server API of the tracker service. Requests and
// responses are JSON-shaped structs with the field names of the HTTP API.
type TrackerServer interface {
	CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListUsers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	AddExercise(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetLog(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv TrackerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) func(
	srv interface{},
	ctx context.Context,
	dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	return func(
		srv interface{},
		ctx context.Context,
		dec func(interface{}) error,
		interceptor grpc.UnaryServerInterceptor,
	) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TrackerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(TrackerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var trackerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrackerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateUser",
			Handler: unaryHandler(MethodCreateUser, func(srv TrackerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.CreateUser(ctx, in)
			}),
		},
		{
			MethodName: "ListUsers",
			Handler: unaryHandler(MethodListUsers, func(srv TrackerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.ListUsers(ctx, in)
			}),
		},
		{
			MethodName: "AddExercise",
			Handler: unaryHandler(MethodAddExercise, func(srv TrackerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.AddExercise(ctx, in)
			}),
		},
		{
			MethodName: "GetLog",
			Handler: unaryHandler(MethodGetLog, func(srv TrackerServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetLog(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tracker.proto",
}

// RegisterTrackerServer registers srv on s.
func RegisterTrackerServer(s grpc.ServiceRegistrar, srv TrackerServer) {
	s.RegisterService(&trackerServiceDesc, srv)
}

// Client calls the tracker service over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCreateUser, in, opts...)
}

func (c *Client) ListUsers(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListUsers, in, opts...)
}

func (c *Client) AddExercise(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodAddExercise, in, opts...)
}

func (c *Client) GetLog(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetLog, in, opts...)
}
