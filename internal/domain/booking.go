package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending       BookingStatus = "pending"
	BookingStatusConfirmed     BookingStatus = "confirmed"
	BookingStatusForRelease    BookingStatus = "for_release"
	BookingStatusReleased      BookingStatus = "released"
	BookingStatusPendingReturn BookingStatus = "pending_return"
	BookingStatusCompleted     BookingStatus = "completed"
	BookingStatusCancelled     BookingStatus = "cancelled"
)

// ActiveScheduleStatuses are the statuses whose schedule can still be
// displaced by another booking being confirmed for the same vehicle.
var ActiveScheduleStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusForRelease,
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusForRelease,
		BookingStatusReleased, BookingStatusPendingReturn, BookingStatusCompleted,
		BookingStatusCancelled:
		return true
	}
	return false
}

type PickupType string

const (
	PickupTypePickup   PickupType = "pickup"
	PickupTypeDelivery PickupType = "delivery"
)

type RefundStatus string

const (
	RefundStatusPending       RefundStatus = "pending"
	RefundStatusProcessed     RefundStatus = "processed"
	RefundStatusNotApplicable RefundStatus = "not_applicable"
)

type RefundMethod string

const (
	RefundMethodGCash        RefundMethod = "gcash"
	RefundMethodBankTransfer RefundMethod = "bank_transfer"
	RefundMethodCash         RefundMethod = "cash"
)

func (m RefundMethod) Valid() bool {
	switch m {
	case RefundMethodGCash, RefundMethodBankTransfer, RefundMethodCash:
		return true
	}
	return false
}

// RefundPayout is where the customer wants refunded money sent.
type RefundPayout struct {
	Method        RefundMethod `json:"method,omitempty"`
	AccountNumber string       `json:"account_number,omitempty"`
	AccountName   string       `json:"account_name,omitempty"`
	BankName      string       `json:"bank_name,omitempty"`
	CustomerNotes string       `json:"customer_notes,omitempty"`
}

func (p RefundPayout) IsZero() bool {
	return p == RefundPayout{}
}

type Booking struct {
	ID               int32         `json:"id"`
	UserID           int32         `json:"user_id"`
	VehicleID        int32         `json:"vehicle_id"`
	DriverID         *int32        `json:"driver_id,omitempty"`
	DriverRequested  bool          `json:"driver_requested"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	PickupType       PickupType    `json:"pickup_type"`
	DeliveryLocation string        `json:"delivery_location,omitempty"`
	DeliveryDetails  string        `json:"delivery_details,omitempty"`
	DeliveryFee      float64       `json:"delivery_fee"`
	Days             int32         `json:"days"`
	TotalPrice       float64       `json:"total_price"`
	Notes            string        `json:"notes,omitempty"`
	ValidIDs         []string      `json:"valid_ids,omitempty"`
	Status           BookingStatus `json:"status"`

	CancelledAt        *time.Time   `json:"cancelled_at,omitempty"`
	CancellationReason string       `json:"cancellation_reason,omitempty"`
	RefundRate         *float64     `json:"refund_rate,omitempty"`
	RefundAmount       float64      `json:"refund_amount"`
	RefundStatus       RefundStatus `json:"refund_status,omitempty"`
	RefundPayout       RefundPayout `json:"refund_payout"`
	RefundNotes        string       `json:"refund_notes,omitempty"`
	RefundProof        string       `json:"refund_proof,omitempty"`
	RefundProcessedAt  *time.Time   `json:"refund_processed_at,omitempty"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Overlaps reports whether the booking's interval intersects [start, end).
// Touching intervals do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// IsOwnedBy reports whether userID placed the booking.
func (b *Booking) IsOwnedBy(userID int32) bool {
	return b.UserID == userID
}

// DeliveryFees lists the supported delivery locations and their flat fee.
var DeliveryFees = map[string]float64{
	"Boac":           300,
	"Gasan":          300,
	"Gasan Port":     300,
	"Balanacan":      300,
	"Buenavista":     300,
	"Sta. Cruz":      500,
	"Sta. Cruz Port": 500,
	"Torrijos":       700,
	"Maniwaya":       500,
	"Mogpog":         150,
}
