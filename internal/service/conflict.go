package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/utils"
)

const autoCancelReason = "Automatically cancelled due to another booking being confirmed for the same vehicle and schedule."

// conflictResolver cancels every other active booking whose schedule overlaps
// a booking that has just been confirmed.
type conflictResolver struct {
	bookings repository.BookingRepository
	payments repository.PaymentRepository
	vehicles repository.VehicleRepository
}

func (r *conflictResolver) Resolve(ctx context.Context, confirmed *domain.Booking, now time.Time, out *outbox) (ConflictSummary, error) {
	summary := ConflictSummary{BookingIDs: []int32{}}
	if confirmed.VehicleID == 0 || confirmed.StartTime.IsZero() || confirmed.EndTime.IsZero() {
		return summary, nil
	}

	vehicle, err := r.vehicles.GetByID(ctx, confirmed.VehicleID)
	if errors.Is(err, domain.ErrNotFound) {
		return summary, nil
	}
	if err != nil {
		return summary, err
	}

	conflicts, err := r.bookings.ListOverlapping(ctx, repository.OverlapQuery{
		VehicleID: &confirmed.VehicleID,
		Start:     confirmed.StartTime,
		End:       confirmed.EndTime,
		Statuses:  domain.ActiveScheduleStatuses,
		ExcludeID: &confirmed.ID,
	})
	if err != nil {
		return summary, err
	}
	if len(conflicts) == 0 {
		return summary, nil
	}

	var rejectedPayments []int32
	for i := range conflicts {
		c := &conflicts[i]

		tr, err := domain.NextTransition(c.Status, domain.EventConflictCancel, domain.TransitionFacts{})
		if err != nil {
			return summary, err
		}

		payments, err := r.payments.ListByBooking(ctx, c.ID)
		if err != nil {
			return summary, err
		}
		var rejected []int32
		for j := range payments {
			p := &payments[j]
			if p.Status != domain.PaymentStatusPending {
				continue
			}
			p.Status = domain.PaymentStatusRejected
			p.ApprovedAt = nil
			if err := r.payments.Update(ctx, p); err != nil {
				return summary, err
			}
			rejected = append(rejected, p.ID)
		}

		refund := utils.CalculateCancellationRefund(vehicle.Deposit, c.StartTime, now, domain.AnyRefundEligible(payments))
		applyCancellation(c, tr, now, autoCancelReason, refund)
		if err := r.bookings.Update(ctx, c); err != nil {
			return summary, err
		}

		summary.Count++
		summary.BookingIDs = append(summary.BookingIDs, c.ID)
		rejectedPayments = append(rejectedPayments, rejected...)

		out.user(c.UserID, domain.EventBookingAutoCancelled, domain.BookingSubject(c.ID), Message{
			Title: "Booking Cancelled",
			Body: fmt.Sprintf("Your booking #%d for %s was cancelled because another booking for the same schedule was confirmed.",
				c.ID, vehicle.Name),
			Data: map[string]any{
				"booking_id":              c.ID,
				"cancelled_payment_ids":   rejected,
				"cancelled_payment_count": len(rejected),
				"refund_amount":           c.RefundAmount,
				"refund_status":           c.RefundStatus,
				"refund_details_required": c.RefundStatus == domain.RefundStatusPending,
			},
		})
	}

	out.admins(domain.EventBookingsAutoCancelled, domain.BookingSubject(confirmed.ID), Message{
		Title: "Conflicting Bookings Cancelled",
		Body: fmt.Sprintf("%d booking(s) for %s were cancelled after booking #%d was confirmed.",
			summary.Count, vehicle.Name, confirmed.ID),
		Data: map[string]any{
			"confirmed_booking_id":  confirmed.ID,
			"cancelled_booking_ids": summary.BookingIDs,
			"rejected_payment_ids":  rejectedPayments,
		},
	})

	logger.Info("Conflicting bookings auto-cancelled", "bookingID", confirmed.ID, "vehicleID", confirmed.VehicleID, "cancelled", summary.BookingIDs)
	return summary, nil
}

func applyCancellation(b *domain.Booking, tr domain.Transition, now time.Time, reason string, refund utils.CancellationRefund) {
	rate := refund.Rate
	b.Status = tr.To
	b.CancelledAt = &now
	b.CancellationReason = reason
	b.RefundRate = &rate
	b.RefundAmount = refund.Amount
	b.RefundStatus = refund.Status
}
