package service

import (
	"context"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
)

// AvailabilityChecker answers whether a vehicle or a driver is free over an
// interval. Intervals that only touch at an endpoint do not conflict.
type AvailabilityChecker struct {
	bookings repository.BookingRepository
	drivers  repository.DriverRepository
}

func NewAvailabilityChecker(bookings repository.BookingRepository, drivers repository.DriverRepository) *AvailabilityChecker {
	return &AvailabilityChecker{bookings: bookings, drivers: drivers}
}

func (a *AvailabilityChecker) HasConflict(ctx context.Context, vehicleID int32, start, end time.Time, excludeID *int32) (bool, error) {
	conflicts, err := a.bookings.ListOverlapping(ctx, repository.OverlapQuery{
		VehicleID: &vehicleID,
		Start:     start,
		End:       end,
		ExcludeID: excludeID,
	})
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

func (a *AvailabilityChecker) DriverHasConflict(ctx context.Context, driverID int32, start, end time.Time, excludeID *int32) (bool, error) {
	conflicts, err := a.bookings.ListOverlapping(ctx, repository.OverlapQuery{
		DriverID:  &driverID,
		Start:     start,
		End:       end,
		ExcludeID: excludeID,
	})
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// FindAvailableDriver returns the active driver with the lowest id that has
// no booking over the interval, or nil when every driver is taken.
func (a *AvailabilityChecker) FindAvailableDriver(ctx context.Context, start, end time.Time, excludeID *int32) (*domain.Driver, error) {
	drivers, err := a.drivers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range drivers {
		busy, err := a.DriverHasConflict(ctx, drivers[i].ID, start, end, excludeID)
		if err != nil {
			return nil, err
		}
		if !busy {
			return &drivers[i], nil
		}
	}
	return nil, nil
}
