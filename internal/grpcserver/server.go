package grpcserver

import (
	"net"

	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/exercisetracker/internal/grpcserver/interceptor"
)

// NewGRPCServer listens on addr and returns a server with the tracker
// service registered and every call logged.
func NewGRPCServer(addr string, handler TrackerServer) (*grpc.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.UnaryLoggingInterceptor([]string{
				MethodCreateUser,
				MethodListUsers,
				MethodAddExercise,
				MethodGetLog,
			}),
		),
	)
	RegisterTrackerServer(server, handler)

	return server, lis, nil
}
