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

func TestPaymentService_ConfirmPayment(t *testing.T) {
	t.Run("Deposit Then Rental", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)
		dep := f.pay(t, alice, b.ID, domain.PaymentTypeDeposit, "DEP-1")
		rent := f.pay(t, alice, b.ID, domain.PaymentTypeRental, "RENT-1")

		res := f.confirm(t, dep.ID)
		assert.Equal(t, domain.BookingStatusConfirmed, res.Booking.Status)
		assert.Equal(t, domain.PaymentStatusApproved, res.Payment.Status)
		assert.Equal(t, f.clock.now, *res.Payment.ApprovedAt)
		assert.Equal(t, 0, res.AutoCancelled.Count)
		assert.Empty(t, res.AutoCancelled.BookingIDs)

		res = f.confirm(t, rent.ID)
		assert.Equal(t, domain.BookingStatusForRelease, res.Booking.Status)
		f.notifier.AssertCalled(t, "NotifyUser", mock.Anything, alice.UserID, domain.EventPaymentStatusUpdated, domain.PaymentSubject(rent.ID), mock.Anything)
	})

	t.Run("Rental First", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)
		rent := f.pay(t, alice, b.ID, domain.PaymentTypeRental, "RENT-1")

		res := f.confirm(t, rent.ID)
		assert.Equal(t, domain.BookingStatusConfirmed, res.Booking.Status)
	})

	t.Run("Conflict Cascade", func(t *testing.T) {
		f := newFixture(t)
		a := f.createBooking(t, alice, 10*day, 2*day)
		other := f.seedBooking(t, bob.UserID, 11*day, 2*day, domain.BookingStatusPending)
		otherPayment := f.seedPayment(t, other.ID, domain.PaymentTypeDeposit, domain.PaymentStatusPending, "BOB-DEP")
		touching := f.seedBooking(t, bob.UserID, 12*day, day, domain.BookingStatusPending)
		released := f.seedBooking(t, bob.UserID, 9*day, 2*day, domain.BookingStatusReleased)

		dep := f.pay(t, alice, a.ID, domain.PaymentTypeDeposit, "DEP-1")
		rent := f.pay(t, alice, a.ID, domain.PaymentTypeRental, "RENT-1")

		res := f.confirm(t, dep.ID)
		assert.Equal(t, 1, res.AutoCancelled.Count)
		assert.Equal(t, []int32{other.ID}, res.AutoCancelled.BookingIDs)

		res = f.confirm(t, rent.ID)
		assert.Equal(t, domain.BookingStatusForRelease, res.Booking.Status)
		assert.Equal(t, 0, res.AutoCancelled.Count)

		cancelled := f.booking(t, other.ID)
		assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
		assert.Contains(t, cancelled.CancellationReason, "Automatically cancelled")
		assert.Equal(t, f.clock.now, *cancelled.CancelledAt)
		assert.Equal(t, 1.0, *cancelled.RefundRate)
		assert.Equal(t, 5000.0, cancelled.RefundAmount)
		assert.Equal(t, domain.RefundStatusPending, cancelled.RefundStatus)

		p, err := f.store.Payments().GetByID(f.ctx, otherPayment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRejected, p.Status)

		assert.Equal(t, domain.BookingStatusPending, f.booking(t, touching.ID).Status)
		assert.Equal(t, domain.BookingStatusReleased, f.booking(t, released.ID).Status)

		assert.Equal(t, 1, f.notified("NotifyAdmins", domain.EventBookingsAutoCancelled))
		f.notifier.AssertCalled(t, "NotifyUser", mock.Anything, bob.UserID, domain.EventBookingAutoCancelled, domain.BookingSubject(other.ID), mock.Anything)
	})

	t.Run("Cascade Without Submitted Money", func(t *testing.T) {
		f := newFixture(t)
		a := f.createBooking(t, alice, 2*day, 2*day)
		other := f.seedBooking(t, bob.UserID, 2*day, day, domain.BookingStatusConfirmed)

		dep := f.pay(t, alice, a.ID, domain.PaymentTypeDeposit, "DEP-1")
		res := f.confirm(t, dep.ID)
		require.Equal(t, 1, res.AutoCancelled.Count)

		cancelled := f.booking(t, other.ID)
		assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
		assert.Equal(t, 0.5, *cancelled.RefundRate)
		assert.Equal(t, 0.0, cancelled.RefundAmount)
		assert.Equal(t, domain.RefundStatusNotApplicable, cancelled.RefundStatus)
	})

	t.Run("Self Loop Does Not Resolve", func(t *testing.T) {
		f := newFixture(t)
		b := f.readyForRelease(t, sedanID, 10*day, 2*day)
		late := f.seedBooking(t, bob.UserID, 10*day, day, domain.BookingStatusPending)
		extra := f.seedPayment(t, b.ID, domain.PaymentTypeRental, domain.PaymentStatusPending, "EXTRA")

		res := f.confirm(t, extra.ID)
		assert.Equal(t, domain.BookingStatusForRelease, res.Booking.Status)
		assert.Equal(t, 0, res.AutoCancelled.Count)
		assert.Equal(t, domain.BookingStatusPending, f.booking(t, late.ID).Status)
	})

	t.Run("Already Approved", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)
		dep := f.pay(t, alice, b.ID, domain.PaymentTypeDeposit, "DEP-1")
		f.confirm(t, dep.ID)

		_, err := f.payments.ConfirmPayment(f.ctx, admin, dep.ID)
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("Cancelled Booking Rolls Back Approval", func(t *testing.T) {
		f := newFixture(t)
		b := f.seedBooking(t, alice.UserID, 10*day, 2*day, domain.BookingStatusCancelled)
		p := f.seedPayment(t, b.ID, domain.PaymentTypeDeposit, domain.PaymentStatusPending, "DEP-1")

		_, err := f.payments.ConfirmPayment(f.ctx, admin, p.ID)
		assert.True(t, errors.Is(err, domain.ErrConflict))

		stored, err := f.store.Payments().GetByID(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPending, stored.Status)
	})

	t.Run("Customer Cannot Confirm", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)
		dep := f.pay(t, alice, b.ID, domain.PaymentTypeDeposit, "DEP-1")

		_, err := f.payments.ConfirmPayment(f.ctx, alice, dep.ID)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("Unknown Payment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.payments.ConfirmPayment(f.ctx, admin, 404)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestPaymentService_SubmitPayment(t *testing.T) {
	t.Run("Defaults To Deposit", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)

		p, err := f.payments.SubmitPayment(f.ctx, alice, b.ID, service.SubmitPaymentRequest{Method: "gcash", ReferenceNumber: " 123 "})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentTypeDeposit, p.Type)
		assert.Equal(t, domain.PaymentStatusPending, p.Status)
		assert.Equal(t, "123", p.ReferenceNumber)
		f.notifier.AssertCalled(t, "NotifyAdmins", mock.Anything, domain.EventPaymentSubmitted, domain.PaymentSubject(p.ID), mock.Anything)
	})

	t.Run("Duplicate Reference", func(t *testing.T) {
		f := newFixture(t)
		a := f.createBooking(t, alice, 10*day, 2*day)
		b := f.createBooking(t, bob, 20*day, 2*day)
		f.pay(t, alice, a.ID, domain.PaymentTypeDeposit, "REF-1")

		_, err := f.payments.SubmitPayment(f.ctx, bob, b.ID, service.SubmitPaymentRequest{Method: "gcash", ReferenceNumber: "REF-1"})
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("One Active Payment Per Type", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)
		first := f.pay(t, alice, b.ID, domain.PaymentTypeDeposit, "REF-1")

		_, err := f.payments.SubmitPayment(f.ctx, alice, b.ID, service.SubmitPaymentRequest{Method: "gcash", ReferenceNumber: "REF-2"})
		assert.True(t, errors.Is(err, domain.ErrConflict))

		_, err = f.payments.RejectPayment(f.ctx, admin, first.ID)
		require.NoError(t, err)

		again := f.pay(t, alice, b.ID, domain.PaymentTypeDeposit, "REF-2")
		assert.NotEqual(t, first.ID, again.ID)
	})

	t.Run("Configured Methods", func(t *testing.T) {
		f := newFixture(t)
		deps := f.deps
		deps.PaymentMethods = []string{"gcash", "bank_transfer"}
		_, _, payments := service.NewServices(deps)
		b := f.createBooking(t, alice, 10*day, 2*day)

		_, err := payments.SubmitPayment(f.ctx, alice, b.ID, service.SubmitPaymentRequest{Method: "paypal", ReferenceNumber: "R"})
		assert.True(t, errors.Is(err, domain.ErrValidation))

		_, err = payments.SubmitPayment(f.ctx, alice, b.ID, service.SubmitPaymentRequest{Method: "bank_transfer", ReferenceNumber: "R"})
		assert.NoError(t, err)
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)

		_, err := f.payments.SubmitPayment(f.ctx, alice, b.ID, service.SubmitPaymentRequest{Type: "tip", Method: "gcash", ReferenceNumber: "R"})
		assert.True(t, errors.Is(err, domain.ErrValidation))
		_, err = f.payments.SubmitPayment(f.ctx, alice, b.ID, service.SubmitPaymentRequest{ReferenceNumber: "R"})
		assert.True(t, errors.Is(err, domain.ErrValidation))
		_, err = f.payments.SubmitPayment(f.ctx, alice, b.ID, service.SubmitPaymentRequest{Method: "gcash"})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("Not Owner", func(t *testing.T) {
		f := newFixture(t)
		b := f.createBooking(t, alice, 10*day, 2*day)
		_, err := f.payments.SubmitPayment(f.ctx, bob, b.ID, service.SubmitPaymentRequest{Method: "gcash", ReferenceNumber: "R"})
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("Released Booking", func(t *testing.T) {
		f := newFixture(t)
		b := f.seedBooking(t, alice.UserID, 10*day, 2*day, domain.BookingStatusReleased)
		_, err := f.payments.SubmitPayment(f.ctx, alice, b.ID, service.SubmitPaymentRequest{Method: "gcash", ReferenceNumber: "R"})
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})
}

func TestPaymentService_RejectAndList(t *testing.T) {
	f := newFixture(t)
	b := f.createBooking(t, alice, 10*day, 2*day)
	p := f.pay(t, alice, b.ID, domain.PaymentTypeDeposit, "REF-1")

	rejected, err := f.payments.RejectPayment(f.ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRejected, rejected.Status)
	assert.Equal(t, domain.BookingStatusPending, f.booking(t, b.ID).Status)
	f.notifier.AssertCalled(t, "NotifyUser", mock.Anything, alice.UserID, domain.EventPaymentStatusUpdated, domain.PaymentSubject(p.ID), mock.Anything)

	_, err = f.payments.RejectPayment(f.ctx, admin, p.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	list, err := f.payments.ListPayments(f.ctx, alice, b.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.payments.ListPayments(f.ctx, bob, b.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.notifier.ExpectedCalls = nil
	f.notifier.On("NotifyUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrNotificationDelivery)
	f.notifier.On("NotifyAdmins", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrNotificationDelivery)

	b, err := f.bookings.CreateBooking(f.ctx, alice, f.bookingRequest(sedanID, 10*day, 2*day))
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, f.booking(t, b.ID).Status)
	f.notifier.AssertNumberOfCalls(t, "NotifyUser", 1)
	f.notifier.AssertNumberOfCalls(t, "NotifyAdmins", 1)
}
