package domain

import "time"

// VehicleRelease records the hand-over of a vehicle to the customer.
// It is written once and never updated.
type VehicleRelease struct {
	ID             int32     `json:"id"`
	BookingID      int32     `json:"booking_id"`
	VehicleID      int32     `json:"vehicle_id"`
	Odometer       *int32    `json:"odometer,omitempty"`
	FuelLevel      string    `json:"fuel_level,omitempty"`
	ConditionNotes string    `json:"condition_notes,omitempty"`
	Images         []string  `json:"images,omitempty"`
	ReleasedAt     time.Time `json:"released_at"`
	CreatedOn      time.Time `json:"created_on"`
}

type ReturnStatus string

const (
	ReturnStatusCustomerSubmitted ReturnStatus = "customer_submitted"
	ReturnStatusCompleted         ReturnStatus = "completed"
)

type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusRefunded DepositStatus = "refunded"
	DepositStatusWithheld DepositStatus = "withheld"
)

func (s DepositStatus) Valid() bool {
	switch s {
	case DepositStatusPending, DepositStatusRefunded, DepositStatusWithheld:
		return true
	}
	return false
}

// VehicleReturn holds both the customer's return report and the admin's
// assessment of the returned vehicle.
type VehicleReturn struct {
	ID        int32        `json:"id"`
	BookingID int32        `json:"booking_id"`
	VehicleID int32        `json:"vehicle_id"`
	Status    ReturnStatus `json:"status"`

	ReturnedAt             *time.Time   `json:"returned_at,omitempty"`
	Odometer               *int32       `json:"odometer,omitempty"`
	FuelLevel              string       `json:"fuel_level,omitempty"`
	CustomerImages         []string     `json:"customer_images,omitempty"`
	CustomerConditionNotes string       `json:"customer_condition_notes,omitempty"`
	CustomerRefund         RefundPayout `json:"customer_refund"`
	CustomerSubmittedAt    *time.Time   `json:"customer_submitted_at,omitempty"`

	ConditionNotes      string        `json:"condition_notes,omitempty"`
	Images              []string      `json:"images,omitempty"`
	LateFee             float64       `json:"late_fee"`
	DamageFee           float64       `json:"damage_fee"`
	CleaningFee         float64       `json:"cleaning_fee"`
	FuelFee             float64       `json:"fuel_fee"`
	DepositStatus       DepositStatus `json:"deposit_status"`
	DepositRefundAmount *float64      `json:"deposit_refund_amount,omitempty"`
	DepositRefundNotes  string        `json:"deposit_refund_notes,omitempty"`
	DepositRefundProof  []string      `json:"deposit_refund_proof,omitempty"`
	DepositRefundedAt   *time.Time    `json:"deposit_refunded_at,omitempty"`
	RefundMethod        RefundMethod  `json:"refund_method,omitempty"`
	AdminProcessedAt    *time.Time    `json:"admin_processed_at,omitempty"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// TotalFees is the sum of every charge assessed against the deposit.
func (r *VehicleReturn) TotalFees() float64 {
	return r.LateFee + r.DamageFee + r.CleaningFee + r.FuelFee
}
