package interceptor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAuthInterceptor_Unary(t *testing.T) {
	tm := security.NewTokenManager(testSecret)
	unary := NewAuthInterceptor(tm).Unary()

	adminToken, err := tm.GenerateAccessToken(1, domain.UserRoleAdmin)
	require.NoError(t, err)
	customerToken, err := tm.GenerateAccessToken(10, domain.UserRoleCustomer)
	require.NoError(t, err)
	refreshToken, err := tm.GenerateRefreshToken(10)
	require.NoError(t, err)

	var seen metadata.MD
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen, _ = metadata.FromIncomingContext(ctx)
		return "ok", nil
	}

	tests := []struct {
		name     string
		method   string
		md       metadata.MD
		wantCode codes.Code
		wantID   string
		wantRole string
	}{
		{
			name:     "public endpoint without token",
			method:   "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo",
			wantCode: codes.OK,
		},
		{
			name:     "missing metadata",
			method:   "/rental.v1.BookingService/CreateBooking",
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "missing authorization header",
			method:   "/rental.v1.BookingService/CreateBooking",
			md:       metadata.Pairs("x-request-id", "abc"),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "customer access",
			method:   "/rental.v1.BookingService/CreateBooking",
			md:       metadata.Pairs("authorization", "Bearer "+customerToken),
			wantCode: codes.OK,
			wantID:   "10",
			wantRole: "customer",
		},
		{
			name:     "spoofed identity headers are overwritten",
			method:   "/rental.v1.BookingService/CreateBooking",
			md:       metadata.Pairs("authorization", "bearer "+customerToken, "user-id", "1", "user-role", "admin"),
			wantCode: codes.OK,
			wantID:   "10",
			wantRole: "customer",
		},
		{
			name:     "refresh token rejected",
			method:   "/rental.v1.BookingService/CreateBooking",
			md:       metadata.Pairs("authorization", "Bearer "+refreshToken),
			wantCode: codes.PermissionDenied,
		},
		{
			name:     "customer on admin endpoint",
			method:   "/rental.v1.AdminBookingService/ReleaseVehicle",
			md:       metadata.Pairs("authorization", "Bearer "+customerToken),
			wantCode: codes.PermissionDenied,
		},
		{
			name:     "admin on admin endpoint",
			method:   "/rental.v1.AdminBookingService/ReleaseVehicle",
			md:       metadata.Pairs("authorization", "Bearer "+adminToken),
			wantCode: codes.OK,
			wantID:   "1",
			wantRole: "admin",
		},
		{
			name:     "unknown method needs admin",
			method:   "/rental.v1.Unknown/Do",
			md:       metadata.Pairs("authorization", "Bearer "+customerToken),
			wantCode: codes.PermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}

			resp, err := unary(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)
			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode != codes.OK {
				assert.Nil(t, resp)
				return
			}
			assert.Equal(t, "ok", resp)
			if tt.wantID != "" {
				assert.Equal(t, []string{tt.wantID}, seen.Get("user-id"))
				assert.Equal(t, []string{tt.wantRole}, seen.Get("user-role"))
			}
		})
	}
}

func TestRequestLogging_PassesThrough(t *testing.T) {
	unary := RequestLogging()

	t.Run("success", func(t *testing.T) {
		resp, err := unary(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/rental.v1.BookingService/GetBooking"},
			func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil })
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("error keeps its code", func(t *testing.T) {
		_, err := unary(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/rental.v1.BookingService/GetBooking"},
			func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, status.Error(codes.NotFound, "Booking 9 not found")
			})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}
