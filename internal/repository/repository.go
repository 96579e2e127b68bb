package repository

import (
	"context"
	"time"

	"vehicle-rental-backend/internal/domain"
)

// OverlapQuery selects bookings whose interval overlaps [Start, End).
// Exactly one of VehicleID or DriverID is set.
type OverlapQuery struct {
	VehicleID *int32
	DriverID  *int32
	Start     time.Time
	End       time.Time
	// Statuses restricts the match; empty means every status except cancelled.
	Statuses []domain.BookingStatus
	// ExcludeID skips one booking, usually the one being edited or confirmed.
	ExcludeID *int32
}

type BookingFilter struct {
	UserID    *int32
	Statuses  []domain.BookingStatus
	EndBefore *time.Time
	Page      int32
	PageSize  int32
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int32) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, int32, error)
	ListOverlapping(ctx context.Context, q OverlapQuery) ([]domain.Booking, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id int32) (*domain.Payment, error)
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
	ListByBooking(ctx context.Context, bookingID int32) ([]domain.Payment, error)
}

type VehicleReleaseRepository interface {
	Create(ctx context.Context, release *domain.VehicleRelease) error
	// GetByBooking returns nil and no error when the booking has no release.
	GetByBooking(ctx context.Context, bookingID int32) (*domain.VehicleRelease, error)
}

type VehicleReturnRepository interface {
	Create(ctx context.Context, ret *domain.VehicleReturn) error
	// GetByBooking returns nil and no error when the booking has no return.
	GetByBooking(ctx context.Context, bookingID int32) (*domain.VehicleReturn, error)
	Update(ctx context.Context, ret *domain.VehicleReturn) error
}

type VehicleRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Vehicle, error)
	UpdateStatus(ctx context.Context, id int32, status domain.VehicleStatus) error
}

type DriverRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Driver, error)
	// ListActive returns active drivers ordered by id.
	ListActive(ctx context.Context) ([]domain.Driver, error)
	SetAvailable(ctx context.Context, id int32, available bool) error
}

// UserRepository is the read side of the user directory.
type UserRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	ListAdmins(ctx context.Context) ([]domain.User, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

// TxManager runs a unit of work atomically. Repositories called with the
// context passed to fn take part in the transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockVehicle serialises schedule changes for one vehicle until the
	// surrounding transaction ends. It must be called inside WithinTx.
	LockVehicle(ctx context.Context, vehicleID int32) error
	// LockBooking gives the caller sole write access to one booking until
	// the surrounding transaction ends. Take it before any vehicle lock.
	LockBooking(ctx context.Context, bookingID int32) error
}
