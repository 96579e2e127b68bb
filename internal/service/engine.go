package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
)

// Dependencies wires the lifecycle services to their collaborators.
type Dependencies struct {
	Bookings repository.BookingRepository
	Payments repository.PaymentRepository
	Releases repository.VehicleReleaseRepository
	Returns  repository.VehicleReturnRepository
	Vehicles repository.VehicleRepository
	Drivers  repository.DriverRepository
	Tx       repository.TxManager
	Notifier Notifier
	Clock    Clock

	// PaymentMethods restricts SubmitPayment when non-empty.
	PaymentMethods []string
}

// engine holds what every lifecycle operation shares: collaborators, the
// availability checker and the conflict resolver.
type engine struct {
	Dependencies
	availability *AvailabilityChecker
	resolver     *conflictResolver
}

func newEngine(deps Dependencies) *engine {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	return &engine{
		Dependencies: deps,
		availability: NewAvailabilityChecker(deps.Bookings, deps.Drivers),
		resolver:     &conflictResolver{bookings: deps.Bookings, payments: deps.Payments, vehicles: deps.Vehicles},
	}
}

// NewServices builds the booking, handover and payment services over one
// shared engine.
func NewServices(deps Dependencies) (BookingService, HandoverService, PaymentService) {
	e := newEngine(deps)
	return &bookingService{e}, &handoverService{e}, &paymentService{e}
}

// notice is a notification queued during a transaction and sent after commit.
type notice struct {
	userID  *int32
	event   domain.EventType
	subject domain.Subject
	msg     Message
}

type outbox []notice

func (o *outbox) user(userID int32, event domain.EventType, subject domain.Subject, msg Message) {
	id := userID
	*o = append(*o, notice{userID: &id, event: event, subject: subject, msg: msg})
}

func (o *outbox) admins(event domain.EventType, subject domain.Subject, msg Message) {
	*o = append(*o, notice{event: event, subject: subject, msg: msg})
}

// run executes fn in one transaction and delivers the notifications it
// queued once the transaction has committed.
func (e *engine) run(ctx context.Context, fn func(ctx context.Context, out *outbox) error) error {
	var out outbox
	err := e.Tx.WithinTx(ctx, func(txCtx context.Context) error {
		out = out[:0]
		return fn(txCtx, &out)
	})
	if err != nil {
		return err
	}
	e.dispatch(ctx, out)
	return nil
}

func (e *engine) dispatch(ctx context.Context, out outbox) {
	if e.Notifier == nil {
		return
	}
	for _, n := range out {
		var err error
		if n.userID != nil {
			err = e.Notifier.NotifyUser(ctx, *n.userID, n.event, n.subject, n.msg)
		} else {
			err = e.Notifier.NotifyAdmins(ctx, n.event, n.subject, n.msg)
		}
		if err != nil {
			logger.Warn("Notification not delivered", "event", n.event, "subject", n.subject.Kind, "subjectID", n.subject.ID, "error", err)
		}
	}
}

func (e *engine) now() time.Time {
	return e.Clock.Now()
}

func requireAdmin(caller domain.Caller) error {
	if !caller.IsAdmin() {
		return domain.Forbiddenf("Administrator access is required")
	}
	return nil
}

// loadBooking fetches a booking the caller may read. Admins may read any
// booking; customers only their own.
func (e *engine) loadBooking(ctx context.Context, caller domain.Caller, id int32) (*domain.Booking, error) {
	b, err := e.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(caller, b); err != nil {
		return nil, err
	}
	return b, nil
}

// lockBooking takes the booking lock, then the lock of the booking's vehicle
// and of any vehicleIDs given, in ascending id order. The booking is read
// once every lock is held, so guards see the last committed writer's state.
// Every operation that changes a booking starts here.
func (e *engine) lockBooking(ctx context.Context, id int32, vehicleIDs ...int32) (*domain.Booking, error) {
	if err := e.Tx.LockBooking(ctx, id); err != nil {
		return nil, err
	}
	b, err := e.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := append([]int32{b.VehicleID}, vehicleIDs...)
	slices.Sort(ids)
	for _, vehicleID := range slices.Compact(ids) {
		if err := e.Tx.LockVehicle(ctx, vehicleID); err != nil {
			return nil, err
		}
	}
	return e.Bookings.GetByID(ctx, id)
}

func checkAccess(caller domain.Caller, b *domain.Booking) error {
	if !caller.IsAdmin() && !b.IsOwnedBy(caller.UserID) {
		return domain.Forbiddenf("You are not allowed to access this booking")
	}
	return nil
}

func checkOwner(caller domain.Caller, b *domain.Booking) error {
	if !b.IsOwnedBy(caller.UserID) {
		return domain.Forbiddenf("You are not allowed to access this booking")
	}
	return nil
}

func validateSchedule(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return domain.Validationf("Start and end times are required")
	}
	if !start.After(now) {
		return domain.Validationf("Start time must be in the future")
	}
	if !end.After(start) {
		return domain.Validationf("End time must be after start time")
	}
	return nil
}

func validatePickup(pickup domain.PickupType, location string) error {
	switch pickup {
	case domain.PickupTypePickup:
		return nil
	case domain.PickupTypeDelivery:
		if _, ok := domain.DeliveryFees[location]; !ok {
			return domain.Validationf("Unknown delivery location %q", location)
		}
		return nil
	default:
		return domain.Validationf("Pickup type must be pickup or delivery")
	}
}

// validatePayout checks refund payout details. Electronic methods need an
// account to send money to.
func validatePayout(p domain.RefundPayout) error {
	if !p.Method.Valid() {
		return domain.Validationf("Refund method must be gcash, bank_transfer or cash")
	}
	if p.Method == domain.RefundMethodCash {
		return nil
	}
	if strings.TrimSpace(p.AccountNumber) == "" || strings.TrimSpace(p.AccountName) == "" {
		return domain.Validationf("Account number and account name are required for %s refunds", p.Method)
	}
	if p.Method == domain.RefundMethodBankTransfer && strings.TrimSpace(p.BankName) == "" {
		return domain.Validationf("Bank name is required for bank transfer refunds")
	}
	return nil
}

func validateAmount(name string, v *float64) error {
	if v != nil && *v < 0 {
		return domain.Validationf("%s cannot be negative", name)
	}
	return nil
}
