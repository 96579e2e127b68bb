package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository/memory"
	"vehicle-rental-backend/internal/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUser(ctx context.Context, userID int32, event domain.EventType, subject domain.Subject, msg service.Message) error {
	args := m.Called(ctx, userID, event, subject, msg)
	return args.Error(0)
}

func (m *MockNotifier) NotifyAdmins(ctx context.Context, event domain.EventType, subject domain.Subject, msg service.Message) error {
	args := m.Called(ctx, event, subject, msg)
	return args.Error(0)
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

var (
	admin = domain.Caller{UserID: 1, Role: domain.UserRoleAdmin}
	alice = domain.Caller{UserID: 10, Role: domain.UserRoleCustomer}
	bob   = domain.Caller{UserID: 11, Role: domain.UserRoleCustomer}
)

const (
	sedanID  = int32(1)
	pickupID = int32(2)
)

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	notifier *MockNotifier
	clock    *fixedClock
	deps     service.Dependencies
	bookings service.BookingService
	handover service.HandoverService
	payments service.PaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.PutVehicle(domain.Vehicle{
		ID:                      sedanID,
		Name:                    "Toyota Vios",
		RentalRate:              2000,
		RentalRateWithDriver:    3000,
		Deposit:                 5000,
		FuelCapacity:            40,
		GasolineLateFeePerLiter: 50,
		LateFeePerHour:          120,
		LateFeePerDay:           600,
		Status:                  domain.VehicleStatusAvailable,
	})
	store.PutVehicle(domain.Vehicle{
		ID:                   pickupID,
		Name:                 "Ford Ranger",
		RentalRate:           3500,
		RentalRateWithDriver: 4500,
		Deposit:              8000,
		Status:               domain.VehicleStatusAvailable,
	})
	store.PutDriver(domain.Driver{ID: 1, Name: "Ramon", Status: domain.DriverStatusActive, Available: true})
	store.PutDriver(domain.Driver{ID: 2, Name: "Lito", Status: domain.DriverStatusActive, Available: true})
	store.PutUser(domain.User{ID: admin.UserID, Name: "Admin", Role: domain.UserRoleAdmin})
	store.PutUser(domain.User{ID: alice.UserID, Name: "Alice", Role: domain.UserRoleCustomer})
	store.PutUser(domain.User{ID: bob.UserID, Name: "Bob", Role: domain.UserRoleCustomer})

	notifier := new(MockNotifier)
	notifier.On("NotifyUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier.On("NotifyAdmins", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	clock := &fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	deps := service.Dependencies{
		Bookings: store.Bookings(),
		Payments: store.Payments(),
		Releases: store.Releases(),
		Returns:  store.Returns(),
		Vehicles: store.Vehicles(),
		Drivers:  store.Drivers(),
		Tx:       store,
		Notifier: notifier,
		Clock:    clock,
	}
	bookings, handover, payments := service.NewServices(deps)

	return &fixture{
		ctx:      context.Background(),
		store:    store,
		notifier: notifier,
		clock:    clock,
		deps:     deps,
		bookings: bookings,
		handover: handover,
		payments: payments,
	}
}

func (f *fixture) bookingRequest(vehicleID int32, startIn, length time.Duration) service.CreateBookingRequest {
	start := f.clock.now.Add(startIn)
	return service.CreateBookingRequest{
		VehicleID:  vehicleID,
		StartTime:  start,
		EndTime:    start.Add(length),
		PickupType: domain.PickupTypePickup,
		ValidIDs:   []string{"ids/front.jpg", "ids/back.jpg"},
	}
}

func (f *fixture) createBooking(t *testing.T, caller domain.Caller, startIn, length time.Duration) *domain.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(f.ctx, caller, f.bookingRequest(sedanID, startIn, length))
	require.NoError(t, err)
	return b
}

// seedBooking writes a booking straight to the store, bypassing the
// availability check, to set up overlapping schedules.
func (f *fixture) seedBooking(t *testing.T, userID int32, startIn, length time.Duration, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	start := f.clock.now.Add(startIn)
	b := &domain.Booking{
		UserID:     userID,
		VehicleID:  sedanID,
		StartTime:  start,
		EndTime:    start.Add(length),
		PickupType: domain.PickupTypePickup,
		Status:     status,
	}
	require.NoError(t, f.store.Bookings().Create(f.ctx, b))
	return b
}

func (f *fixture) seedPayment(t *testing.T, bookingID int32, typ domain.PaymentType, status domain.PaymentStatus, ref string) *domain.Payment {
	t.Helper()
	p := &domain.Payment{BookingID: bookingID, Type: typ, Method: "gcash", ReferenceNumber: ref, Status: status}
	require.NoError(t, f.store.Payments().Create(f.ctx, p))
	return p
}

func (f *fixture) pay(t *testing.T, caller domain.Caller, bookingID int32, typ domain.PaymentType, ref string) *domain.Payment {
	t.Helper()
	p, err := f.payments.SubmitPayment(f.ctx, caller, bookingID, service.SubmitPaymentRequest{
		Type:            typ,
		Method:          "gcash",
		ReferenceNumber: ref,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) confirm(t *testing.T, paymentID int32) *service.ConfirmPaymentResult {
	t.Helper()
	res, err := f.payments.ConfirmPayment(f.ctx, admin, paymentID)
	require.NoError(t, err)
	return res
}

// readyForRelease creates a booking for alice and approves both payments.
func (f *fixture) readyForRelease(t *testing.T, vehicleID int32, startIn, length time.Duration) *domain.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(f.ctx, alice, f.bookingRequest(vehicleID, startIn, length))
	require.NoError(t, err)
	return f.approveAll(t, b)
}

func (f *fixture) approveAll(t *testing.T, b *domain.Booking) *domain.Booking {
	t.Helper()
	dep := f.pay(t, alice, b.ID, domain.PaymentTypeDeposit, fmt.Sprintf("DEP-%d", b.ID))
	rent := f.pay(t, alice, b.ID, domain.PaymentTypeRental, fmt.Sprintf("RENT-%d", b.ID))
	f.confirm(t, dep.ID)
	res := f.confirm(t, rent.ID)
	require.Equal(t, domain.BookingStatusForRelease, res.Booking.Status)
	return res.Booking
}

func (f *fixture) booking(t *testing.T, id int32) *domain.Booking {
	t.Helper()
	b, err := f.store.Bookings().GetByID(f.ctx, id)
	require.NoError(t, err)
	return b
}

func (f *fixture) vehicle(t *testing.T, id int32) *domain.Vehicle {
	t.Helper()
	v, err := f.store.Vehicles().GetByID(f.ctx, id)
	require.NoError(t, err)
	return v
}

// notified counts how often the notifier was asked to send event.
func (f *fixture) notified(method string, event domain.EventType) int {
	n := 0
	for _, c := range f.notifier.Calls {
		if c.Method != method {
			continue
		}
		idx := 2
		if method == "NotifyAdmins" {
			idx = 1
		}
		if c.Arguments.Get(idx) == event {
			n++
		}
	}
	return n
}

func ptr[T any](v T) *T { return &v }

const (
	day  = 24 * time.Hour
	hour = time.Hour
)
