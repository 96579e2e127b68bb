package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
)

// decode copies a Struct message into a JSON-tagged request value.
func decode(in *structpb.Struct, dst any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

// encode converts a JSON-tagged response value into a Struct message.
func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// toStatus maps service errors to gRPC status codes. Status errors pass
// through untouched.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var domainErr *domain.Error
	msg := err.Error()
	if errors.As(err, &domainErr) {
		msg = domainErr.Message
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.FailedPrecondition, msg)
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, msg)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	}
	logger.Error("Unhandled service error", "error", err)
	return status.Error(codes.Internal, "internal error")
}

// unary builds a MethodDesc whose request and response are Struct messages.
func unary[S any](serviceName, methodName string, call func(S, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + methodName
	return grpc.MethodDesc{
		MethodName: methodName,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				out, err := call(srv.(S), ctx, req.(*structpb.Struct))
				if err != nil {
					return nil, toStatus(err)
				}
				return out, nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// bookingRef is the body shared by calls that address one booking.
type bookingRef struct {
	BookingID int32 `json:"booking_id"`
}

type paymentRef struct {
	PaymentID int32 `json:"payment_id"`
}

type bookingList struct {
	Bookings   []domain.Booking `json:"bookings"`
	TotalCount int32            `json:"total_count"`
}
