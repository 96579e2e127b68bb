package domain

import "time"

type EventType string

const (
	EventBookingCreated           EventType = "booking_created"
	EventBookingUpdated           EventType = "booking_updated"
	EventBookingCancelled         EventType = "booking_cancelled"
	EventBookingAutoCancelled     EventType = "booking_auto_cancelled"
	EventBookingsAutoCancelled    EventType = "bookings_auto_cancelled"
	EventPaymentSubmitted         EventType = "payment_submitted"
	EventPaymentStatusUpdated     EventType = "payment_status_updated"
	EventVehicleReleased          EventType = "vehicle_released"
	EventVehicleReturnSubmitted   EventType = "vehicle_return_submitted"
	EventVehicleReturnCompleted   EventType = "vehicle_return_completed"
	EventDepositRefundProcessed   EventType = "deposit_refund_processed"
	EventRefundDetailsSubmitted   EventType = "refund_details_submitted"
	EventCancellationRefundIssued EventType = "cancellation_refund_processed"
	EventReturnOverdue            EventType = "return_overdue"
)

type SubjectKind string

const (
	SubjectBooking SubjectKind = "booking"
	SubjectPayment SubjectKind = "payment"
)

// Subject is the entity a notification is about.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   int32       `json:"id"`
}

func BookingSubject(id int32) Subject { return Subject{Kind: SubjectBooking, ID: id} }

func PaymentSubject(id int32) Subject { return Subject{Kind: SubjectPayment, ID: id} }

type Notification struct {
	ID        int32          `json:"id"`
	UserID    int32          `json:"user_id"`
	Type      EventType      `json:"type"`
	Subject   Subject        `json:"subject"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedOn time.Time      `json:"created_on"`
}
