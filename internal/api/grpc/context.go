package grpc

import (
	"context"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"vehicle-rental-backend/internal/domain"
)

const (
	userIDKey   = "user-id"
	userRoleKey = "user-role"
)

// GetUserIDFromContext extracts the user ID from the gRPC metadata.
// It expects a header named "user-id".
func GetUserIDFromContext(ctx context.Context) (int32, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	userIDs := md.Get(userIDKey)
	if len(userIDs) == 0 {
		return 0, status.Errorf(codes.Unauthenticated, "user_id is not provided in metadata")
	}

	userID, err := strconv.ParseInt(userIDs[0], 10, 32)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid user_id format: %v", err)
	}

	return int32(userID), nil
}

// CallerFromContext returns the identity injected by the auth interceptor.
// A missing role header means a customer.
func CallerFromContext(ctx context.Context) (domain.Caller, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return domain.Caller{}, err
	}
	caller := domain.Caller{UserID: userID, Role: domain.UserRoleCustomer}
	md, _ := metadata.FromIncomingContext(ctx)
	if roles := md.Get(userRoleKey); len(roles) > 0 && roles[0] != "" {
		caller.Role = domain.UserRole(roles[0])
	}
	return caller, nil
}
