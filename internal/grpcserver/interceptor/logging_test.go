package interceptor

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/exercisetracker/internal/logger"
)

const trackedMethod = "/tracker.Tracker/GetLog"

func observeLogs(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zap.DebugLevel)
	previous := logger.Log
	logger.Log = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Log = previous })

	return logs
}

func TestUnaryLoggingInterceptor(t *testing.T) {
	tests := []struct {
		name        string
		handlerErr  error
		wantCode    string
		wantLevel   zapcore.Level
		wantMessage string
	}{
		{
			name:      "ok",
			wantCode:  codes.OK.String(),
			wantLevel: zap.InfoLevel,
		},
		{
			name:        "invalid argument",
			handlerErr:  status.Error(codes.InvalidArgument, "Path `duration` is required."),
			wantCode:    codes.InvalidArgument.String(),
			wantLevel:   zap.WarnLevel,
			wantMessage: "Path `duration` is required.",
		},
		{
			name:        "plain error",
			handlerErr:  errors.New("connection reset"),
			wantCode:    codes.Unknown.String(),
			wantLevel:   zap.ErrorLevel,
			wantMessage: "connection reset",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			logs := observeLogs(t)
			intercept := UnaryLoggingInterceptor([]string{trackedMethod})

			ctx := peer.NewContext(context.Background(), &peer.Peer{
				Addr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5050},
			})
			resp, err := intercept(ctx, "req", &grpc.UnaryServerInfo{FullMethod: trackedMethod},
				func(ctx context.Context, req any) (any, error) {
					return "resp", test.handlerErr
				})

			assert.Equal(t, "resp", resp)
			assert.Equal(t, test.handlerErr, err)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			fields := entry.ContextMap()
			assert.Equal(t, test.wantLevel, entry.Level)
			assert.Equal(t, trackedMethod, fields["method"])
			assert.Equal(t, "127.0.0.1:5050", fields["peer"])
			assert.Equal(t, test.wantCode, fields["code"])
			if test.wantMessage == "" {
				assert.NotContains(t, fields, "message")
			} else {
				assert.Equal(t, test.wantMessage, fields["message"])
			}
		})
	}
}

func TestUnaryLoggingInterceptorUntracked(t *testing.T) {
	logs := observeLogs(t)
	intercept := UnaryLoggingInterceptor([]string{trackedMethod})

	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req any) (any, error) {
			return nil, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
}

func TestUnaryLoggingInterceptorWithoutPeer(t *testing.T) {
	logs := observeLogs(t)
	intercept := UnaryLoggingInterceptor([]string{trackedMethod})

	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: trackedMethod},
		func(ctx context.Context, req any) (any, error) {
			return nil, nil
		})

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "unknown", logs.All()[0].ContextMap()["peer"])
}
