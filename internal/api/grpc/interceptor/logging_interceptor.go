package interceptor

import (
	"context"
	"time"

	"equiprent-backend/internal/logger"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDKey = "x-request-id"

// LoggingUnary logs every unary call with its status code and duration,
// tagging the context with the caller's x-request-id or a fresh one.
func LoggingUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(requestIDKey); len(vals) > 0 {
				id = vals[0]
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		ctx = logger.WithRequestID(ctx, id)

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		if err != nil {
			logger.WarnContext(ctx, "gRPC request failed", append(args, "error", err)...)
		} else {
			logger.InfoContext(ctx, "gRPC request", args...)
		}
		return resp, err
	}
}
