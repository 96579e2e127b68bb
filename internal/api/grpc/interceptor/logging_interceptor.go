package interceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"vehicle-rental-backend/internal/logger"
)

const requestIDHeader = "x-request-id"

// RequestLogging tags each call with a request id, echoes it back in the
// response header and logs the outcome.
func RequestLogging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(requestIDHeader); len(ids) > 0 {
				requestID = ids[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = logger.WithRequestID(ctx, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, requestID))

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		args := []any{"rpc", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		switch code {
		case codes.OK:
			logger.InfoContext(ctx, "gRPC request", args...)
		case codes.Internal, codes.Unknown:
			logger.ErrorContext(ctx, "gRPC request failed", append(args, "error", err)...)
		default:
			logger.WarnContext(ctx, "gRPC request rejected", append(args, "error", err)...)
		}
		return resp, err
	}
}
