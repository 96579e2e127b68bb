package service_test

import (
	"errors"
	"testing"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBookingService_CreateBooking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		req := f.bookingRequest(sedanID, 10*day, 2*day)
		req.PickupType = domain.PickupTypeDelivery
		req.DeliveryLocation = "Boac"

		b, err := f.bookings.CreateBooking(f.ctx, alice, req)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusPending, b.Status)
		assert.Equal(t, alice.UserID, b.UserID)
		assert.Equal(t, int32(2), b.Days)
		assert.Equal(t, 300.0, b.DeliveryFee)
		assert.Equal(t, 4300.0, b.TotalPrice)
		assert.Nil(t, b.DriverID)

		f.notifier.AssertCalled(t, "NotifyUser", mock.Anything, alice.UserID, domain.EventBookingCreated, domain.BookingSubject(b.ID), mock.Anything)
		f.notifier.AssertCalled(t, "NotifyAdmins", mock.Anything, domain.EventBookingCreated, domain.BookingSubject(b.ID), mock.Anything)
	})

	t.Run("Overlapping Schedule", func(t *testing.T) {
		f := newFixture(t)
		f.createBooking(t, alice, 10*day, 2*day)

		_, err := f.bookings.CreateBooking(f.ctx, bob, f.bookingRequest(sedanID, 11*day, 2*day))
		assert.True(t, errors.Is(err, domain.ErrConflict))
		assert.EqualError(t, err, "Vehicle is not available for the selected dates")
	})

	t.Run("Touching Schedule Is Free", func(t *testing.T) {
		f := newFixture(t)
		f.createBooking(t, alice, 10*day, 2*day)

		b, err := f.bookings.CreateBooking(f.ctx, bob, f.bookingRequest(sedanID, 12*day, 2*day))
		require.NoError(t, err)
		assert.Equal(t, bob.UserID, b.UserID)
	})

	t.Run("Cancelled Booking Frees Schedule", func(t *testing.T) {
		f := newFixture(t)
		f.seedBooking(t, alice.UserID, 10*day, 2*day, domain.BookingStatusCancelled)

		_, err := f.bookings.CreateBooking(f.ctx, bob, f.bookingRequest(sedanID, 10*day, 2*day))
		assert.NoError(t, err)
	})

	t.Run("Driver Assignment", func(t *testing.T) {
		f := newFixture(t)
		req := f.bookingRequest(sedanID, 10*day, 2*day)
		req.DriverRequested = true
		first, err := f.bookings.CreateBooking(f.ctx, alice, req)
		require.NoError(t, err)
		require.NotNil(t, first.DriverID)
		assert.Equal(t, int32(1), *first.DriverID)
		assert.Equal(t, 6000.0, first.TotalPrice)

		req = f.bookingRequest(pickupID, 11*day, 1*day)
		req.DriverRequested = true
		second, err := f.bookings.CreateBooking(f.ctx, bob, req)
		require.NoError(t, err)
		require.NotNil(t, second.DriverID)
		assert.Equal(t, int32(2), *second.DriverID)

		req = f.bookingRequest(pickupID, 30*day, 1*day)
		req.DriverRequested = true
		later, err := f.bookings.CreateBooking(f.ctx, bob, req)
		require.NoError(t, err)
		assert.Equal(t, int32(1), *later.DriverID)
	})

	t.Run("No Driver Left", func(t *testing.T) {
		f := newFixture(t)
		f.store.PutDriver(domain.Driver{ID: 2, Name: "Lito", Status: domain.DriverStatusInactive})
		req := f.bookingRequest(sedanID, 10*day, 2*day)
		req.DriverRequested = true
		_, err := f.bookings.CreateBooking(f.ctx, alice, req)
		require.NoError(t, err)

		req = f.bookingRequest(pickupID, 10*day, 2*day)
		req.DriverRequested = true
		_, err = f.bookings.CreateBooking(f.ctx, bob, req)
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture(t)
		cases := map[string]func(r *service.CreateBookingRequest){
			"start in past":    func(r *service.CreateBookingRequest) { r.StartTime = f.clock.now.Add(-hour) },
			"end before start": func(r *service.CreateBookingRequest) { r.EndTime = r.StartTime.Add(-hour) },
			"one id image":     func(r *service.CreateBookingRequest) { r.ValidIDs = r.ValidIDs[:1] },
			"blank id image":   func(r *service.CreateBookingRequest) { r.ValidIDs[1] = " " },
			"unknown location": func(r *service.CreateBookingRequest) { r.PickupType, r.DeliveryLocation = domain.PickupTypeDelivery, "Manila" },
			"unknown pickup":   func(r *service.CreateBookingRequest) { r.PickupType = "drone" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				req := f.bookingRequest(sedanID, 10*day, 2*day)
				mutate(&req)
				_, err := f.bookings.CreateBooking(f.ctx, alice, req)
				assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
			})
		}
	})

	t.Run("Unknown Vehicle", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.bookings.CreateBooking(f.ctx, alice, f.bookingRequest(99, 10*day, 2*day))
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestBookingService_CheckSummary(t *testing.T) {
	f := newFixture(t)
	existing := f.createBooking(t, alice, 10*day, 2*day)

	req := service.SummaryRequest{
		VehicleID:  sedanID,
		StartTime:  existing.StartTime.Add(12 * hour),
		EndTime:    existing.EndTime.Add(day),
		PickupType: domain.PickupTypePickup,
	}

	t.Run("Unavailable", func(t *testing.T) {
		s, err := f.bookings.CheckSummary(f.ctx, bob, req)
		require.NoError(t, err)
		assert.False(t, s.Available)
		assert.Equal(t, 5000.0, s.Deposit)
		assert.Equal(t, int32(3), s.Price.Days)
		assert.NotEmpty(t, s.DeliveryLocations)
	})

	t.Run("Own Booking Excluded", func(t *testing.T) {
		r := req
		r.ExcludeBookingID = &existing.ID
		s, err := f.bookings.CheckSummary(f.ctx, alice, r)
		require.NoError(t, err)
		assert.True(t, s.Available)
	})

	t.Run("Someone Else's Booking", func(t *testing.T) {
		r := req
		r.ExcludeBookingID = &existing.ID
		_, err := f.bookings.CheckSummary(f.ctx, bob, r)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("Driver Availability", func(t *testing.T) {
		r := req
		r.StartTime = existing.StartTime.Add(10 * day)
		r.EndTime = r.StartTime.Add(2 * day)

		s, err := f.bookings.CheckSummary(f.ctx, bob, r)
		require.NoError(t, err)
		assert.True(t, s.DriverAvailable, "no driver requested")

		r.DriverRequested = true
		s, err = f.bookings.CheckSummary(f.ctx, bob, r)
		require.NoError(t, err)
		assert.True(t, s.DriverAvailable)

		f.store.PutDriver(domain.Driver{ID: 1, Name: "Ramon", Status: domain.DriverStatusInactive})
		f.store.PutDriver(domain.Driver{ID: 2, Name: "Lito", Status: domain.DriverStatusInactive})
		s, err = f.bookings.CheckSummary(f.ctx, bob, r)
		require.NoError(t, err)
		assert.False(t, s.DriverAvailable)

		r.DriverRequested = false
		s, err = f.bookings.CheckSummary(f.ctx, bob, r)
		require.NoError(t, err)
		assert.True(t, s.DriverAvailable, "no driver requested")
	})
}

func TestBookingService_UpdateBooking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)

		end := b.EndTime.Add(day)
		updated, err := f.bookings.UpdateBooking(f.ctx, alice, b.ID, service.UpdateBookingRequest{
			EndTime:          &end,
			PickupType:       ptr(domain.PickupTypeDelivery),
			DeliveryLocation: ptr("Mogpog"),
		})
		require.NoError(t, err)
		assert.Equal(t, int32(3), updated.Days)
		assert.Equal(t, 6150.0, updated.TotalPrice)
		assert.Equal(t, "Mogpog", f.booking(t, b.ID).DeliveryLocation)
	})

	t.Run("Too Close To Start", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 20*hour, 2*day)

		_, err := f.bookings.UpdateBooking(f.ctx, alice, b.ID, service.UpdateBookingRequest{Notes: ptr("late flight")})
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("Not Pending", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)
		p := f.pay(t, alice, b.ID, domain.PaymentTypeDeposit, "DEP-1")
		f.confirm(t, p.ID)

		_, err := f.bookings.UpdateBooking(f.ctx, alice, b.ID, service.UpdateBookingRequest{Notes: ptr("x")})
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("Moves Into Another Booking", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)
		f.createBooking(t, bob, 14*day, 2*day)

		end := b.EndTime.Add(3 * day)
		_, err := f.bookings.UpdateBooking(f.ctx, alice, b.ID, service.UpdateBookingRequest{EndTime: &end})
		assert.True(t, errors.Is(err, domain.ErrConflict))
		assert.Equal(t, b.EndTime, f.booking(t, b.ID).EndTime)
	})

	t.Run("Driver Reassigned", func(t *testing.T) {
		f := newFixture(t)
		req := f.bookingRequest(sedanID, 10*day, 2*day)
		req.DriverRequested = true
		b, err := f.bookings.CreateBooking(f.ctx, alice, req)
		require.NoError(t, err)
		require.Equal(t, int32(1), *b.DriverID)

		req = f.bookingRequest(pickupID, 14*day, 2*day)
		req.DriverRequested = true
		other, err := f.bookings.CreateBooking(f.ctx, bob, req)
		require.NoError(t, err)
		require.Equal(t, int32(1), *other.DriverID)

		end := b.EndTime.Add(3 * day)
		_, err = f.bookings.UpdateBooking(f.ctx, alice, b.ID, service.UpdateBookingRequest{
			VehicleID: ptr(pickupID),
			StartTime: ptr(b.StartTime),
			EndTime:   &end,
		})
		assert.True(t, errors.Is(err, domain.ErrConflict), "pickup is booked by bob")

		start := b.StartTime.Add(3 * day)
		end = start.Add(2 * day)
		updated, err := f.bookings.UpdateBooking(f.ctx, alice, b.ID, service.UpdateBookingRequest{StartTime: &start, EndTime: &end})
		require.NoError(t, err)
		assert.Equal(t, int32(2), *updated.DriverID)
	})

	t.Run("Not Owner", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)
		_, err := f.bookings.UpdateBooking(f.ctx, bob, b.ID, service.UpdateBookingRequest{Notes: ptr("mine")})
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})
}

func TestBookingService_GetAndList(t *testing.T) {
	f := newFixture(t)
	mine := f.createBooking(t, alice, 10*day, 2*day)
	theirs := f.createBooking(t, bob, 20*day, 2*day)

	t.Run("Owner Sees Details", func(t *testing.T) {
		d, err := f.bookings.GetBooking(f.ctx, alice, mine.ID)
		require.NoError(t, err)
		assert.Equal(t, mine.ID, d.Booking.ID)
		assert.Equal(t, "Toyota Vios", d.Vehicle.Name)
		assert.Empty(t, d.Payments)
		assert.Nil(t, d.Release)
		assert.Nil(t, d.Return)
		assert.Equal(t, 0.0, d.LateFee.Amount)
	})

	t.Run("Stranger Is Forbidden", func(t *testing.T) {
		_, err := f.bookings.GetBooking(f.ctx, alice, theirs.ID)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("Admin Sees Any", func(t *testing.T) {
		_, err := f.bookings.GetBooking(f.ctx, admin, theirs.ID)
		assert.NoError(t, err)
	})

	t.Run("Customer Lists Own", func(t *testing.T) {
		list, total, err := f.bookings.ListBookings(f.ctx, alice, service.ListBookingsRequest{})
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		assert.Equal(t, mine.ID, list[0].ID)
	})

	t.Run("Admin Lists All", func(t *testing.T) {
		_, total, err := f.bookings.ListBookings(f.ctx, admin, service.ListBookingsRequest{Statuses: []domain.BookingStatus{domain.BookingStatusPending}})
		require.NoError(t, err)
		assert.Equal(t, int32(2), total)
	})

	t.Run("Unknown Status", func(t *testing.T) {
		_, _, err := f.bookings.ListBookings(f.ctx, admin, service.ListBookingsRequest{Statuses: []domain.BookingStatus{"archived"}})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}
