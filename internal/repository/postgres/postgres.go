package postgres

import (
	"context"
	"database/sql"
	"errors"

	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"

	_ "github.com/lib/pq"
)

// Advisory lock classes, one namespace per kind of id.
const (
	vehicleLockClass = 1
	bookingLockClass = 2
)

type Store struct {
	db *sql.DB
	repository.TxManager
	Bookings      repository.BookingRepository
	Payments      repository.PaymentRepository
	Releases      repository.VehicleReleaseRepository
	Returns       repository.VehicleReturnRepository
	Vehicles      repository.VehicleRepository
	Drivers       repository.DriverRepository
	Users         repository.UserRepository
	Notifications repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		TxManager:     NewTxManager(db),
		Bookings:      NewBookingRepository(db),
		Payments:      NewPaymentRepository(db),
		Releases:      NewVehicleReleaseRepository(db),
		Returns:       NewVehicleReturnRepository(db),
		Vehicles:      NewVehicleRepository(db),
		Drivers:       NewDriverRepository(db),
		Users:         NewUserRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// conn returns the transaction bound to ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

type txManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) repository.TxManager {
	return &txManager{db: db}
}

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (m *txManager) LockVehicle(ctx context.Context, vehicleID int32) error {
	return advisoryLock(ctx, vehicleLockClass, vehicleID, "vehicleID")
}

func (m *txManager) LockBooking(ctx context.Context, bookingID int32) error {
	return advisoryLock(ctx, bookingLockClass, bookingID, "bookingID")
}

func advisoryLock(ctx context.Context, class, id int32, key string) error {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	if !ok {
		return errors.New("advisory lock requires a transaction")
	}
	logger.DatabaseCall("LOCK", "pg_advisory_xact_lock", key, id)
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, class, id)
	logger.DatabaseResult("LOCK", 0, err, key, id)
	return err
}
