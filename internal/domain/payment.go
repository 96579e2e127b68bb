package domain

import "time"

type PaymentType string

const (
	PaymentTypeDeposit PaymentType = "deposit"
	PaymentTypeRental  PaymentType = "rental"
)

func (t PaymentType) Valid() bool {
	return t == PaymentTypeDeposit || t == PaymentTypeRental
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

type Payment struct {
	ID              int32         `json:"id"`
	BookingID       int32         `json:"booking_id"`
	Type            PaymentType   `json:"type"`
	Method          string        `json:"method"`
	ReferenceNumber string        `json:"reference_number"`
	ProofArtifact   string        `json:"proof_artifact,omitempty"`
	Status          PaymentStatus `json:"status"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
	CreatedOn       time.Time     `json:"created_on"`
}

// RefundEligible reports whether money was submitted with this payment.
// Approved and rejected submissions both count; pending ones do not.
func (p *Payment) RefundEligible() bool {
	return p.Status == PaymentStatusApproved || p.Status == PaymentStatusRejected
}

// AnyRefundEligible reports whether at least one payment is refund eligible.
func AnyRefundEligible(payments []Payment) bool {
	for i := range payments {
		if payments[i].RefundEligible() {
			return true
		}
	}
	return false
}

// HasApproved reports whether a payment of the given type is approved.
func HasApproved(payments []Payment, t PaymentType) bool {
	for _, p := range payments {
		if p.Type == t && p.Status == PaymentStatusApproved {
			return true
		}
	}
	return false
}
