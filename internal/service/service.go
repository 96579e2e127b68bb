package service

import (
	"context"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/utils"
)

type BookingService interface {
	CreateBooking(ctx context.Context, caller domain.Caller, req CreateBookingRequest) (*domain.Booking, error)
	CheckSummary(ctx context.Context, caller domain.Caller, req SummaryRequest) (*BookingSummary, error)
	UpdateBooking(ctx context.Context, caller domain.Caller, bookingID int32, req UpdateBookingRequest) (*domain.Booking, error)
	GetBooking(ctx context.Context, caller domain.Caller, bookingID int32) (*BookingDetails, error)
	ListBookings(ctx context.Context, caller domain.Caller, req ListBookingsRequest) ([]domain.Booking, int32, error)

	// Cancellation and cancellation refunds
	CancelBooking(ctx context.Context, caller domain.Caller, bookingID int32, req CancelBookingRequest) (*CancellationResult, error)
	SubmitRefundDetails(ctx context.Context, caller domain.Caller, bookingID int32, payout domain.RefundPayout) (*domain.Booking, error)
	ProcessRefund(ctx context.Context, caller domain.Caller, bookingID int32, req ProcessRefundRequest) (*domain.Booking, error)
}

type HandoverService interface {
	ReleaseVehicle(ctx context.Context, caller domain.Caller, bookingID int32, req ReleaseVehicleRequest) (*domain.VehicleRelease, error)
	SubmitReturn(ctx context.Context, caller domain.Caller, bookingID int32, req SubmitReturnRequest) (*domain.VehicleReturn, error)
	ReturnVehicle(ctx context.Context, caller domain.Caller, bookingID int32, req ReturnVehicleRequest) (*ReturnResult, error)
	ProcessDepositRefund(ctx context.Context, caller domain.Caller, bookingID int32, req DepositRefundRequest) (*domain.VehicleReturn, error)
}

type PaymentService interface {
	SubmitPayment(ctx context.Context, caller domain.Caller, bookingID int32, req SubmitPaymentRequest) (*domain.Payment, error)
	ConfirmPayment(ctx context.Context, caller domain.Caller, paymentID int32) (*ConfirmPaymentResult, error)
	RejectPayment(ctx context.Context, caller domain.Caller, paymentID int32) (*domain.Payment, error)
	ListPayments(ctx context.Context, caller domain.Caller, bookingID int32) ([]domain.Payment, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

// Message is the human-facing part of a notification.
type Message struct {
	Title string
	Body  string
	Data  map[string]any
}

// Notifier delivers lifecycle notifications. Delivery is best effort.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int32, event domain.EventType, subject domain.Subject, msg Message) error
	NotifyAdmins(ctx context.Context, event domain.EventType, subject domain.Subject, msg Message) error
}

type CreateBookingRequest struct {
	VehicleID        int32             `json:"vehicle_id"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          time.Time         `json:"end_time"`
	DriverRequested  bool              `json:"driver_requested"`
	PickupType       domain.PickupType `json:"pickup_type"`
	DeliveryLocation string            `json:"delivery_location"`
	DeliveryDetails  string            `json:"delivery_details"`
	Notes            string            `json:"notes"`
	ValidIDs         []string          `json:"valid_ids"`
}

type SummaryRequest struct {
	VehicleID        int32             `json:"vehicle_id"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          time.Time         `json:"end_time"`
	DriverRequested  bool              `json:"driver_requested"`
	PickupType       domain.PickupType `json:"pickup_type"`
	DeliveryLocation string            `json:"delivery_location"`
	ExcludeBookingID *int32            `json:"exclude_booking_id,omitempty"`
}

type BookingSummary struct {
	VehicleID         int32                  `json:"vehicle_id"`
	Available         bool                   `json:"available"`
	DriverAvailable   bool                   `json:"driver_available"`
	Price             utils.PriceBreakdown   `json:"price"`
	Deposit           float64                `json:"deposit"`
	DeliveryLocations []utils.DeliveryOption `json:"delivery_locations"`
}

// UpdateBookingRequest carries the fields a customer may change; nil keeps
// the current value.
type UpdateBookingRequest struct {
	VehicleID        *int32             `json:"vehicle_id,omitempty"`
	StartTime        *time.Time         `json:"start_time,omitempty"`
	EndTime          *time.Time         `json:"end_time,omitempty"`
	PickupType       *domain.PickupType `json:"pickup_type,omitempty"`
	DeliveryLocation *string            `json:"delivery_location,omitempty"`
	DeliveryDetails  *string            `json:"delivery_details,omitempty"`
	Notes            *string            `json:"notes,omitempty"`
}

type ListBookingsRequest struct {
	Statuses []domain.BookingStatus `json:"statuses"`
	Page     int32                  `json:"page"`
	PageSize int32                  `json:"page_size"`
}

type BookingDetails struct {
	Booking              *domain.Booking        `json:"booking"`
	Vehicle              *domain.Vehicle        `json:"vehicle"`
	Payments             []domain.Payment       `json:"payments"`
	Release              *domain.VehicleRelease `json:"release,omitempty"`
	Return               *domain.VehicleReturn  `json:"return,omitempty"`
	LateFee              utils.LateFeeDetails   `json:"late_fee"`
	DefaultDepositRefund float64                `json:"default_deposit_refund"`
}

type CancelBookingRequest struct {
	Reason string              `json:"reason"`
	Payout domain.RefundPayout `json:"payout"`
}

type CancellationResult struct {
	Booking      *domain.Booking     `json:"booking"`
	RefundRate   float64             `json:"refund_rate"`
	RefundAmount float64             `json:"refund_amount"`
	RefundStatus domain.RefundStatus `json:"refund_status"`
}

type ProcessRefundRequest struct {
	Amount float64 `json:"amount"`
	Notes  string  `json:"notes"`
	Proof  string  `json:"proof"`
}

type ReleaseVehicleRequest struct {
	ReleasedAt     *time.Time `json:"released_at,omitempty"`
	Odometer       *int32     `json:"odometer,omitempty"`
	FuelLevel      string     `json:"fuel_level"`
	ConditionNotes string     `json:"condition_notes"`
	Images         []string   `json:"images"`
}

type SubmitReturnRequest struct {
	ReturnedAt     *time.Time          `json:"returned_at,omitempty"`
	Odometer       *int32              `json:"odometer,omitempty"`
	FuelLevel      string              `json:"fuel_level"`
	ConditionNotes string              `json:"condition_notes"`
	Images         []string            `json:"images"`
	Refund         domain.RefundPayout `json:"refund"`
}

// ReturnVehicleRequest is the admin's assessment of a returned vehicle.
// Nil fee fields keep what is already recorded; LateFee, when set, replaces
// the computed late fee.
type ReturnVehicleRequest struct {
	ReturnedAt          *time.Time           `json:"returned_at,omitempty"`
	Odometer            *int32               `json:"odometer,omitempty"`
	FuelLevel           *string              `json:"fuel_level,omitempty"`
	ConditionNotes      string               `json:"condition_notes"`
	Images              []string             `json:"images"`
	LateFee             *float64             `json:"late_fee,omitempty"`
	DamageFee           *float64             `json:"damage_fee,omitempty"`
	CleaningFee         *float64             `json:"cleaning_fee,omitempty"`
	DepositStatus       domain.DepositStatus `json:"deposit_status,omitempty"`
	DepositRefundAmount *float64             `json:"deposit_refund_amount,omitempty"`
	DepositRefundNotes  string               `json:"deposit_refund_notes"`
	DepositRefundProof  []string             `json:"deposit_refund_proof"`
	RefundMethod        domain.RefundMethod  `json:"refund_method,omitempty"`
}

type ReturnResult struct {
	Booking              *domain.Booking       `json:"booking"`
	Return               *domain.VehicleReturn `json:"return"`
	LateFee              utils.LateFeeDetails  `json:"late_fee"`
	DefaultDepositRefund float64               `json:"default_deposit_refund"`
}

type DepositRefundRequest struct {
	Status domain.DepositStatus `json:"status"`
	Amount *float64             `json:"amount,omitempty"`
	Notes  string               `json:"notes"`
	Proof  []string             `json:"proof"`
	Method domain.RefundMethod  `json:"method,omitempty"`
}

type SubmitPaymentRequest struct {
	Type            domain.PaymentType `json:"type"`
	Method          string             `json:"method"`
	ReferenceNumber string             `json:"reference_number"`
	ProofArtifact   string             `json:"proof_artifact"`
}

// ConflictSummary lists the bookings cancelled because another booking for
// the same vehicle and schedule was confirmed.
type ConflictSummary struct {
	Count      int     `json:"count"`
	BookingIDs []int32 `json:"booking_ids"`
}

type ConfirmPaymentResult struct {
	Payment       *domain.Payment `json:"payment"`
	Booking       *domain.Booking `json:"booking"`
	AutoCancelled ConflictSummary `json:"auto_cancelled"`
}
