// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the admin role required
)

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// BookingService - Access Protected
	"/rental.v1.BookingService/CreateBooking":       SecurityAccess,
	"/rental.v1.BookingService/CheckSummary":        SecurityAccess,
	"/rental.v1.BookingService/UpdateBooking":       SecurityAccess,
	"/rental.v1.BookingService/CancelBooking":       SecurityAccess,
	"/rental.v1.BookingService/SubmitRefundDetails": SecurityAccess,
	"/rental.v1.BookingService/SubmitReturn":        SecurityAccess,
	"/rental.v1.BookingService/SubmitPayment":       SecurityAccess,
	"/rental.v1.BookingService/GetBooking":          SecurityAccess,
	"/rental.v1.BookingService/ListMyBookings":      SecurityAccess,

	// AdminBookingService - Admin Protected
	"/rental.v1.AdminBookingService/ConfirmPayment":       SecurityAdmin,
	"/rental.v1.AdminBookingService/RejectPayment":        SecurityAdmin,
	"/rental.v1.AdminBookingService/ReleaseVehicle":       SecurityAdmin,
	"/rental.v1.AdminBookingService/ReturnVehicle":        SecurityAdmin,
	"/rental.v1.AdminBookingService/ProcessDepositRefund": SecurityAdmin,
	"/rental.v1.AdminBookingService/ProcessRefund":        SecurityAdmin,
	"/rental.v1.AdminBookingService/CancelBooking":        SecurityAdmin,
	"/rental.v1.AdminBookingService/ListBookings":         SecurityAdmin,
	"/rental.v1.AdminBookingService/GetBookingDetails":    SecurityAdmin,

	// NotificationService - Access Protected
	"/rental.v1.NotificationService/GetNotifications":     SecurityAccess,
	"/rental.v1.NotificationService/MarkNotificationRead": SecurityAccess,

	// Reflection - Public
	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      SecurityPublic,
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": SecurityPublic,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
