package service

import (
	"context"
	"fmt"
	"strings"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/utils"
)

func (s *bookingService) CancelBooking(ctx context.Context, caller domain.Caller, bookingID int32, req CancelBookingRequest) (*CancellationResult, error) {
	logger.EnterMethod("bookingService.CancelBooking", "bookingID", bookingID, "userID", caller.UserID)

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, domain.Validationf("Cancellation reason is required")
	}

	var result *CancellationResult
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := checkAccess(caller, b); err != nil {
			return err
		}
		tr, err := domain.NextTransition(b.Status, domain.EventCancel, domain.TransitionFacts{})
		if err != nil {
			return err
		}

		vehicle, err := s.Vehicles.GetByID(ctx, b.VehicleID)
		if err != nil {
			return err
		}
		payments, err := s.Payments.ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}

		now := s.now()
		refund := utils.CalculateCancellationRefund(vehicle.Deposit, b.StartTime, now, domain.AnyRefundEligible(payments))
		applyCancellation(b, tr, now, reason, refund)

		if b.RefundStatus == domain.RefundStatusPending && !caller.IsAdmin() && !req.Payout.IsZero() {
			if err := validatePayout(req.Payout); err != nil {
				return err
			}
			b.RefundPayout = req.Payout
		}

		if err := s.Bookings.Update(ctx, b); err != nil {
			return err
		}
		result = &CancellationResult{
			Booking:      b,
			RefundRate:   refund.Rate,
			RefundAmount: refund.Amount,
			RefundStatus: refund.Status,
		}

		data := map[string]any{
			"booking_id":              b.ID,
			"reason":                  reason,
			"refund_amount":           b.RefundAmount,
			"refund_status":           b.RefundStatus,
			"refund_details_required": b.RefundStatus == domain.RefundStatusPending && b.RefundPayout.IsZero(),
			"cancelled_by_admin":      caller.IsAdmin(),
		}
		body := fmt.Sprintf("Booking #%d for %s has been cancelled.", b.ID, vehicle.Name)
		if b.RefundStatus == domain.RefundStatusPending {
			body += fmt.Sprintf(" A refund of %.2f will be processed.", b.RefundAmount)
		}
		out.user(b.UserID, domain.EventBookingCancelled, domain.BookingSubject(b.ID), Message{
			Title: "Booking Cancelled",
			Body:  body,
			Data:  data,
		})
		out.admins(domain.EventBookingCancelled, domain.BookingSubject(b.ID), Message{
			Title: "Booking Cancelled",
			Body:  fmt.Sprintf("Booking #%d for %s was cancelled: %s", b.ID, vehicle.Name, reason),
			Data:  data,
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CancelBooking", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("bookingService.CancelBooking", "bookingID", bookingID, "refundStatus", result.RefundStatus)
	return result, nil
}

// SubmitRefundDetails records where the customer wants a pending
// cancellation refund sent.
func (s *bookingService) SubmitRefundDetails(ctx context.Context, caller domain.Caller, bookingID int32, payout domain.RefundPayout) (*domain.Booking, error) {
	if err := validatePayout(payout); err != nil {
		return nil, err
	}

	var booking *domain.Booking
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := checkOwner(caller, b); err != nil {
			return err
		}
		if err := s.requireRefundable(ctx, b); err != nil {
			return err
		}

		b.RefundPayout = payout
		if err := s.Bookings.Update(ctx, b); err != nil {
			return err
		}
		booking = b

		out.admins(domain.EventRefundDetailsSubmitted, domain.BookingSubject(b.ID), Message{
			Title: "Refund Details Submitted",
			Body:  fmt.Sprintf("Refund details for booking #%d were submitted (%s).", b.ID, payout.Method),
			Data: map[string]any{
				"booking_id":    b.ID,
				"refund_amount": b.RefundAmount,
				"refund_method": payout.Method,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ProcessRefund marks a cancellation refund as paid out.
func (s *bookingService) ProcessRefund(ctx context.Context, caller domain.Caller, bookingID int32, req ProcessRefundRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.ProcessRefund", "bookingID", bookingID)
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, domain.Validationf("Refund amount must be greater than zero")
	}
	if strings.TrimSpace(req.Proof) == "" {
		return nil, domain.Validationf("Refund proof is required")
	}

	var booking *domain.Booking
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := s.requireRefundable(ctx, b); err != nil {
			return err
		}
		vehicle, err := s.Vehicles.GetByID(ctx, b.VehicleID)
		if err != nil {
			return err
		}
		amount := utils.RoundMoney(req.Amount)
		if amount > vehicle.Deposit {
			return domain.Validationf("Refund amount cannot exceed the deposit of %.2f", vehicle.Deposit)
		}

		now := s.now()
		b.RefundAmount = amount
		b.RefundStatus = domain.RefundStatusProcessed
		b.RefundNotes = req.Notes
		b.RefundProof = req.Proof
		b.RefundProcessedAt = &now
		if err := s.Bookings.Update(ctx, b); err != nil {
			return err
		}
		booking = b

		out.user(b.UserID, domain.EventCancellationRefundIssued, domain.BookingSubject(b.ID), Message{
			Title: "Refund Processed",
			Body:  fmt.Sprintf("Your refund of %.2f for booking #%d has been processed.", amount, b.ID),
			Data: map[string]any{
				"booking_id":    b.ID,
				"refund_amount": amount,
				"refund_method": b.RefundPayout.Method,
			},
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ProcessRefund", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("bookingService.ProcessRefund", "bookingID", bookingID, "amount", booking.RefundAmount)
	return booking, nil
}

// requireRefundable checks that a cancelled booking still owes a refund and
// that money was actually submitted for it.
func (s *bookingService) requireRefundable(ctx context.Context, b *domain.Booking) error {
	if b.Status != domain.BookingStatusCancelled {
		return domain.Conflictf("Booking is not cancelled")
	}
	if b.RefundStatus != domain.RefundStatusPending || b.RefundAmount <= 0 {
		return domain.Conflictf("No refund is pending for this booking")
	}
	payments, err := s.Payments.ListByBooking(ctx, b.ID)
	if err != nil {
		return err
	}
	if !domain.AnyRefundEligible(payments) {
		return domain.Conflictf("No payment was submitted for this booking")
	}
	return nil
}
