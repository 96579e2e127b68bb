package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/utils"
)

// minHoursBeforeModification is how far ahead of the start a pending
// booking may still be edited.
const minHoursBeforeModification = 24

type bookingService struct {
	*engine
}

func (s *bookingService) CreateBooking(ctx context.Context, caller domain.Caller, req CreateBookingRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "userID", caller.UserID, "vehicleID", req.VehicleID)

	if err := validateSchedule(req.StartTime, req.EndTime, s.now()); err != nil {
		return nil, err
	}
	if err := validatePickup(req.PickupType, req.DeliveryLocation); err != nil {
		return nil, err
	}
	if len(req.ValidIDs) != 2 || strings.TrimSpace(req.ValidIDs[0]) == "" || strings.TrimSpace(req.ValidIDs[1]) == "" {
		return nil, domain.Validationf("Exactly two valid ID images are required")
	}

	var booking *domain.Booking
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		vehicle, err := s.Vehicles.GetByID(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if err := s.Tx.LockVehicle(ctx, vehicle.ID); err != nil {
			return err
		}

		busy, err := s.availability.HasConflict(ctx, vehicle.ID, req.StartTime, req.EndTime, nil)
		if err != nil {
			return err
		}
		if busy {
			return domain.Conflictf("Vehicle is not available for the selected dates")
		}

		var driverID *int32
		if req.DriverRequested {
			driver, err := s.availability.FindAvailableDriver(ctx, req.StartTime, req.EndTime, nil)
			if err != nil {
				return err
			}
			if driver == nil {
				return domain.Conflictf("No driver is available for the selected dates")
			}
			driverID = &driver.ID
		}

		price := utils.CalculateBookingPrice(vehicle, req.StartTime, req.EndTime, req.DriverRequested, req.PickupType, req.DeliveryLocation)
		booking = &domain.Booking{
			UserID:           caller.UserID,
			VehicleID:        vehicle.ID,
			DriverID:         driverID,
			DriverRequested:  req.DriverRequested,
			StartTime:        req.StartTime,
			EndTime:          req.EndTime,
			PickupType:       req.PickupType,
			DeliveryFee:      price.DeliveryFee,
			Days:             price.Days,
			TotalPrice:       price.TotalPrice,
			Notes:            req.Notes,
			ValidIDs:         req.ValidIDs,
			Status:           domain.InitialBookingStatus,
		}
		if req.PickupType == domain.PickupTypeDelivery {
			booking.DeliveryLocation = req.DeliveryLocation
			booking.DeliveryDetails = req.DeliveryDetails
		}
		if err := s.Bookings.Create(ctx, booking); err != nil {
			return err
		}

		data := map[string]any{"booking_id": booking.ID, "vehicle_id": vehicle.ID, "total_price": booking.TotalPrice}
		out.user(caller.UserID, domain.EventBookingCreated, domain.BookingSubject(booking.ID), Message{
			Title: "Booking Received",
			Body:  fmt.Sprintf("Your booking #%d for %s has been received and is awaiting payment.", booking.ID, vehicle.Name),
			Data:  data,
		})
		out.admins(domain.EventBookingCreated, domain.BookingSubject(booking.ID), Message{
			Title: "New Booking",
			Body:  fmt.Sprintf("Booking #%d for %s from %s to %s.", booking.ID, vehicle.Name, formatTime(booking.StartTime), formatTime(booking.EndTime)),
			Data:  data,
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "vehicleID", req.VehicleID)
		return nil, err
	}

	logger.ExitMethod("bookingService.CreateBooking", "bookingID", booking.ID)
	return booking, nil
}

func (s *bookingService) CheckSummary(ctx context.Context, caller domain.Caller, req SummaryRequest) (*BookingSummary, error) {
	if err := validateSchedule(req.StartTime, req.EndTime, s.now()); err != nil {
		return nil, err
	}
	if err := validatePickup(req.PickupType, req.DeliveryLocation); err != nil {
		return nil, err
	}
	if req.ExcludeBookingID != nil {
		if _, err := s.loadBooking(ctx, caller, *req.ExcludeBookingID); err != nil {
			return nil, err
		}
	}

	vehicle, err := s.Vehicles.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	busy, err := s.availability.HasConflict(ctx, vehicle.ID, req.StartTime, req.EndTime, req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}

	summary := &BookingSummary{
		VehicleID:         vehicle.ID,
		Available:         !busy,
		Price:             utils.CalculateBookingPrice(vehicle, req.StartTime, req.EndTime, req.DriverRequested, req.PickupType, req.DeliveryLocation),
		Deposit:           vehicle.Deposit,
		DriverAvailable:   true,
		DeliveryLocations: utils.DeliveryOptions(),
	}
	if req.DriverRequested {
		driver, err := s.availability.FindAvailableDriver(ctx, req.StartTime, req.EndTime, req.ExcludeBookingID)
		if err != nil {
			return nil, err
		}
		summary.DriverAvailable = driver != nil
	}
	return summary, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, caller domain.Caller, bookingID int32, req UpdateBookingRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.UpdateBooking", "bookingID", bookingID, "userID", caller.UserID)

	var booking *domain.Booking
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		var moveTo []int32
		if req.VehicleID != nil {
			moveTo = append(moveTo, *req.VehicleID)
		}
		b, err := s.lockBooking(ctx, bookingID, moveTo...)
		if err != nil {
			return err
		}
		if err := checkOwner(caller, b); err != nil {
			return err
		}
		now := s.now()
		if b.Status != domain.BookingStatusPending {
			return domain.Conflictf("Only pending bookings can be modified")
		}
		if b.StartTime.Sub(now).Hours() < minHoursBeforeModification {
			return domain.Conflictf("Bookings can only be modified at least %d hours before the start time", minHoursBeforeModification)
		}

		applyUpdate(b, req)
		if err := validateSchedule(b.StartTime, b.EndTime, now); err != nil {
			return err
		}
		if err := validatePickup(b.PickupType, b.DeliveryLocation); err != nil {
			return err
		}
		if b.PickupType == domain.PickupTypePickup {
			b.DeliveryLocation, b.DeliveryDetails = "", ""
		}

		vehicle, err := s.Vehicles.GetByID(ctx, b.VehicleID)
		if err != nil {
			return err
		}
		busy, err := s.availability.HasConflict(ctx, vehicle.ID, b.StartTime, b.EndTime, &b.ID)
		if err != nil {
			return err
		}
		if busy {
			return domain.Conflictf("Vehicle is not available for the selected dates")
		}

		if b.DriverID != nil {
			if err := s.reassignDriver(ctx, b); err != nil {
				return err
			}
		}

		price := utils.CalculateBookingPrice(vehicle, b.StartTime, b.EndTime, b.DriverRequested, b.PickupType, b.DeliveryLocation)
		b.Days = price.Days
		b.DeliveryFee = price.DeliveryFee
		b.TotalPrice = price.TotalPrice

		if err := s.Bookings.Update(ctx, b); err != nil {
			return err
		}
		booking = b

		out.user(b.UserID, domain.EventBookingUpdated, domain.BookingSubject(b.ID), Message{
			Title: "Booking Updated",
			Body:  fmt.Sprintf("Your booking #%d now runs from %s to %s.", b.ID, formatTime(b.StartTime), formatTime(b.EndTime)),
			Data:  map[string]any{"booking_id": b.ID, "total_price": b.TotalPrice},
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.UpdateBooking", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("bookingService.UpdateBooking", "bookingID", bookingID)
	return booking, nil
}

// reassignDriver keeps the current driver when still free over the new
// schedule and otherwise hands the booking to the first free active driver.
func (s *bookingService) reassignDriver(ctx context.Context, b *domain.Booking) error {
	busy, err := s.availability.DriverHasConflict(ctx, *b.DriverID, b.StartTime, b.EndTime, &b.ID)
	if err != nil {
		return err
	}
	if !busy {
		return nil
	}
	driver, err := s.availability.FindAvailableDriver(ctx, b.StartTime, b.EndTime, &b.ID)
	if err != nil {
		return err
	}
	if driver == nil {
		return domain.Conflictf("No driver is available for the selected dates")
	}
	b.DriverID = &driver.ID
	return nil
}

func applyUpdate(b *domain.Booking, req UpdateBookingRequest) {
	if req.VehicleID != nil {
		b.VehicleID = *req.VehicleID
	}
	if req.StartTime != nil {
		b.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		b.EndTime = *req.EndTime
	}
	if req.PickupType != nil {
		b.PickupType = *req.PickupType
	}
	if req.DeliveryLocation != nil {
		b.DeliveryLocation = *req.DeliveryLocation
	}
	if req.DeliveryDetails != nil {
		b.DeliveryDetails = *req.DeliveryDetails
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}
}

func (s *bookingService) GetBooking(ctx context.Context, caller domain.Caller, bookingID int32) (*BookingDetails, error) {
	b, err := s.loadBooking(ctx, caller, bookingID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.Vehicles.GetByID(ctx, b.VehicleID)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	release, err := s.Releases.GetByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	ret, err := s.Returns.GetByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	details := &BookingDetails{
		Booking:  b,
		Vehicle:  vehicle,
		Payments: payments,
		Release:  release,
		Return:   ret,
	}

	var returnedAt *time.Time
	switch {
	case ret != nil && ret.ReturnedAt != nil:
		returnedAt = ret.ReturnedAt
	case b.Status == domain.BookingStatusReleased:
		now := s.now()
		returnedAt = &now
	}
	details.LateFee = utils.CalculateLateFee(b.EndTime, returnedAt, vehicle.LateFeePerHour, vehicle.LateFeePerDay)
	if ret != nil {
		details.DefaultDepositRefund = utils.DefaultDepositRefund(vehicle.Deposit, ret.LateFee, ret.DamageFee, ret.CleaningFee, ret.FuelFee)
	}
	return details, nil
}

func (s *bookingService) ListBookings(ctx context.Context, caller domain.Caller, req ListBookingsRequest) ([]domain.Booking, int32, error) {
	for _, st := range req.Statuses {
		if !st.Valid() {
			return nil, 0, domain.Validationf("Unknown booking status %q", st)
		}
	}
	filter := repository.BookingFilter{
		Statuses: req.Statuses,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if !caller.IsAdmin() {
		filter.UserID = &caller.UserID
	}
	return s.Bookings.List(ctx, filter)
}

func formatTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}
