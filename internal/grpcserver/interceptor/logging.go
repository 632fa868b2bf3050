// Package interceptor holds the unary gRPC interceptors of the tracker.
package interceptor

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/exercisetracker/internal/logger"
)

func levelForCode(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK:
		return zapcore.InfoLevel
	case codes.Internal, codes.Unknown, codes.Unavailable, codes.DataLoss:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// UnaryLoggingInterceptor writes one entry per call to the tracked methods
// with the caller address, status code and duration. Calls to any other
// method are not logged.
func UnaryLoggingInterceptor(trackedMethods []string) grpc.UnaryServerInterceptor {
	tracked := make(map[string]bool, len(trackedMethods))
	for _, m := range trackedMethods {
		tracked[m] = true
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !tracked[info.FullMethod] {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		caller := "unknown"
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			caller = p.Addr.String()
		}

		st := status.Convert(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("peer", caller),
			zap.String("code", st.Code().String()),
			zap.Duration("duration", elapsed),
		}
		if err != nil {
			fields = append(fields, zap.String("message", st.Message()))
		}
		logger.Log.Desugar().Check(levelForCode(st.Code()), "grpc request").Write(fields...)

		return resp, err
	}
}
