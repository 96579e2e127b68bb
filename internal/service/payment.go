package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
)

type paymentService struct {
	*engine
}

func (s *paymentService) SubmitPayment(ctx context.Context, caller domain.Caller, bookingID int32, req SubmitPaymentRequest) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.SubmitPayment", "bookingID", bookingID, "userID", caller.UserID)

	if req.Type == "" {
		req.Type = domain.PaymentTypeDeposit
	}
	if !req.Type.Valid() {
		return nil, domain.Validationf("Payment type must be deposit or rental")
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		return nil, domain.Validationf("Payment method is required")
	}
	if len(s.PaymentMethods) > 0 && !slices.Contains(s.PaymentMethods, method) {
		return nil, domain.Validationf("Payment method %q is not accepted", method)
	}
	reference := strings.TrimSpace(req.ReferenceNumber)
	if reference == "" {
		return nil, domain.Validationf("Reference number is required")
	}

	var payment *domain.Payment
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := checkOwner(caller, b); err != nil {
			return err
		}
		if !slices.Contains(domain.ActiveScheduleStatuses, b.Status) {
			return domain.Conflictf("Payments cannot be submitted for a %s booking", b.Status)
		}

		dup, err := s.Payments.GetByReference(ctx, reference)
		if err != nil {
			return err
		}
		if dup != nil {
			return domain.Conflictf("Reference number %s has already been used", reference)
		}

		payments, err := s.Payments.ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, p := range payments {
			if p.Type == req.Type && p.Status != domain.PaymentStatusRejected {
				return domain.Conflictf("A %s payment has already been submitted for this booking", req.Type)
			}
		}

		payment = &domain.Payment{
			BookingID:       b.ID,
			Type:            req.Type,
			Method:          method,
			ReferenceNumber: reference,
			ProofArtifact:   req.ProofArtifact,
			Status:          domain.PaymentStatusPending,
		}
		if err := s.Payments.Create(ctx, payment); err != nil {
			return err
		}

		out.admins(domain.EventPaymentSubmitted, domain.PaymentSubject(payment.ID), Message{
			Title: "Payment Submitted",
			Body:  fmt.Sprintf("A %s payment (%s, ref %s) was submitted for booking #%d.", payment.Type, method, reference, b.ID),
			Data: map[string]any{
				"booking_id":       b.ID,
				"payment_id":       payment.ID,
				"payment_type":     payment.Type,
				"reference_number": reference,
			},
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.SubmitPayment", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("paymentService.SubmitPayment", "bookingID", bookingID, "paymentID", payment.ID)
	return payment, nil
}

// ConfirmPayment approves a pending payment. When the approval moves the
// booking to confirmed or for_release, overlapping bookings for the same
// vehicle are cancelled in the same transaction.
func (s *paymentService) ConfirmPayment(ctx context.Context, caller domain.Caller, paymentID int32) (*ConfirmPaymentResult, error) {
	logger.EnterMethod("paymentService.ConfirmPayment", "paymentID", paymentID)
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	var result *ConfirmPaymentResult
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		p, b, err := s.lockPayment(ctx, paymentID)
		if err != nil {
			return err
		}

		now := s.now()
		p.Status = domain.PaymentStatusApproved
		p.ApprovedAt = &now
		if err := s.Payments.Update(ctx, p); err != nil {
			return err
		}

		payments, err := s.Payments.ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		tr, err := domain.NextTransition(b.Status, domain.EventPaymentApproved, domain.TransitionFacts{
			DepositApproved: domain.HasApproved(payments, domain.PaymentTypeDeposit),
			RentalApproved:  domain.HasApproved(payments, domain.PaymentTypeRental),
		})
		if err != nil {
			return err
		}

		result = &ConfirmPaymentResult{Payment: p, Booking: b, AutoCancelled: ConflictSummary{BookingIDs: []int32{}}}
		if tr.Changed() {
			b.Status = tr.To
			if err := s.Bookings.Update(ctx, b); err != nil {
				return err
			}
			if tr.Has(domain.EffectResolveConflicts) {
				summary, err := s.resolver.Resolve(ctx, b, now, out)
				if err != nil {
					return err
				}
				result.AutoCancelled = summary
			}
		}

		out.user(b.UserID, domain.EventPaymentStatusUpdated, domain.PaymentSubject(p.ID), Message{
			Title: "Payment Approved",
			Body:  fmt.Sprintf("Your %s payment for booking #%d has been approved.", p.Type, b.ID),
			Data: map[string]any{
				"booking_id":     b.ID,
				"payment_id":     p.ID,
				"payment_type":   p.Type,
				"payment_status": p.Status,
				"booking_status": b.Status,
			},
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.ConfirmPayment", err, "paymentID", paymentID)
		return nil, err
	}
	logger.ExitMethod("paymentService.ConfirmPayment", "paymentID", paymentID, "bookingStatus", result.Booking.Status, "autoCancelled", result.AutoCancelled.Count)
	return result, nil
}

func (s *paymentService) RejectPayment(ctx context.Context, caller domain.Caller, paymentID int32) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.RejectPayment", "paymentID", paymentID)
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	var payment *domain.Payment
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		p, b, err := s.lockPayment(ctx, paymentID)
		if err != nil {
			return err
		}

		p.Status = domain.PaymentStatusRejected
		p.ApprovedAt = nil
		if err := s.Payments.Update(ctx, p); err != nil {
			return err
		}
		payment = p

		out.user(b.UserID, domain.EventPaymentStatusUpdated, domain.PaymentSubject(p.ID), Message{
			Title: "Payment Rejected",
			Body:  fmt.Sprintf("Your %s payment (ref %s) for booking #%d was rejected. Please submit a new payment.", p.Type, p.ReferenceNumber, b.ID),
			Data: map[string]any{
				"booking_id":     b.ID,
				"payment_id":     p.ID,
				"payment_type":   p.Type,
				"payment_status": p.Status,
			},
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.RejectPayment", err, "paymentID", paymentID)
		return nil, err
	}
	logger.ExitMethod("paymentService.RejectPayment", "paymentID", paymentID)
	return payment, nil
}

// lockPayment locks the booking a payment belongs to and then reads the
// payment, which must still be pending.
func (s *paymentService) lockPayment(ctx context.Context, paymentID int32) (*domain.Payment, *domain.Booking, error) {
	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.lockBooking(ctx, p.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if p, err = s.Payments.GetByID(ctx, paymentID); err != nil {
		return nil, nil, err
	}
	if p.Status != domain.PaymentStatusPending {
		return nil, nil, domain.Conflictf("Payment is already %s", p.Status)
	}
	return p, b, nil
}

func (s *paymentService) ListPayments(ctx context.Context, caller domain.Caller, bookingID int32) ([]domain.Payment, error) {
	b, err := s.loadBooking(ctx, caller, bookingID)
	if err != nil {
		return nil, err
	}
	return s.Payments.ListByBooking(ctx, b.ID)
}
