package jobs

import (
	"context"
	"fmt"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/service"
	"vehicle-rental-backend/internal/utils"
)

// SendOverdueReturnReminders notifies customers whose released vehicle is
// past its scheduled end time, quoting the late fee accrued so far.
func (jr *JobRunner) SendOverdueReturnReminders() {
	jr.runWithRecovery("SendOverdueReturnReminders", func() {
		sent, err := jr.sendOverdueReturnReminders(context.Background())
		if err != nil {
			logger.Error("Failed to send overdue return reminders", "error", err)
			return
		}
		logger.Info("Sent overdue return reminders", "count", sent)
	})
}

func (jr *JobRunner) sendOverdueReturnReminders(ctx context.Context) (int, error) {
	now := jr.deps.Clock.Now()
	bookings, _, err := jr.deps.Bookings.List(ctx, repository.BookingFilter{
		Statuses:  []domain.BookingStatus{domain.BookingStatusReleased},
		EndBefore: &now,
	})
	if err != nil {
		return 0, fmt.Errorf("list overdue bookings: %w", err)
	}

	vehicles := make(map[int32]*domain.Vehicle)
	sent := 0
	for i := range bookings {
		b := &bookings[i]
		vehicle, ok := vehicles[b.VehicleID]
		if !ok {
			vehicle, err = jr.deps.Vehicles.GetByID(ctx, b.VehicleID)
			if err != nil {
				logger.Warn("Skipping overdue booking with unknown vehicle", "bookingID", b.ID, "vehicleID", b.VehicleID, "error", err)
				continue
			}
			vehicles[b.VehicleID] = vehicle
		}

		details := utils.CalculateLateFee(b.EndTime, &now, vehicle.LateFeePerHour, vehicle.LateFeePerDay)
		amount := utils.VehicleLateFee(vehicle, b.EndTime, &now)
		msg := service.Message{
			Title: "Vehicle return overdue",
			Body: fmt.Sprintf("Your rental of %s was due back on %s. Late fees so far: %.2f.",
				vehicle.Name, b.EndTime.Format("Jan 2, 2006 3:04 PM"), amount),
			Data: map[string]any{
				"late_fee":           amount,
				"late_minutes_total": details.LateMinutesTotal,
				"late_days":          details.LateDays,
				"late_hours":         details.LateHours,
			},
		}
		if err := jr.deps.Notifier.NotifyUser(ctx, b.UserID, domain.EventReturnOverdue, domain.BookingSubject(b.ID), msg); err != nil {
			logger.Warn("Overdue reminder not delivered", "bookingID", b.ID, "userID", b.UserID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
