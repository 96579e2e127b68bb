package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"

	"github.com/lib/pq"
)

const bookingColumns = `id, user_id, vehicle_id, driver_id, driver_requested, start_time, end_time, pickup_type,
	delivery_location, delivery_details, delivery_fee, days, total_price, notes, valid_ids, status,
	cancelled_at, cancellation_reason, refund_rate, refund_amount, refund_status, refund_method,
	refund_account_number, refund_account_name, refund_bank_name, refund_customer_notes,
	refund_notes, refund_proof, refund_processed_at, created_on, updated_on`

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func scanBooking(row scanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(&b.ID, &b.UserID, &b.VehicleID, &b.DriverID, &b.DriverRequested, &b.StartTime, &b.EndTime, &b.PickupType,
		&b.DeliveryLocation, &b.DeliveryDetails, &b.DeliveryFee, &b.Days, &b.TotalPrice, &b.Notes, pq.Array(&b.ValidIDs), &b.Status,
		&b.CancelledAt, &b.CancellationReason, &b.RefundRate, &b.RefundAmount, &b.RefundStatus, &b.RefundPayout.Method,
		&b.RefundPayout.AccountNumber, &b.RefundPayout.AccountName, &b.RefundPayout.BankName, &b.RefundPayout.CustomerNotes,
		&b.RefundNotes, &b.RefundProof, &b.RefundProcessedAt, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (user_id, vehicle_id, driver_id, driver_requested, start_time, end_time, pickup_type,
	          delivery_location, delivery_details, delivery_fee, days, total_price, notes, valid_ids, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17) RETURNING id`
	logger.DatabaseCall("INSERT", "bookings", "userID", b.UserID, "vehicleID", b.VehicleID)

	now := time.Now()
	err := conn(ctx, r.db).QueryRowContext(ctx, query, b.UserID, b.VehicleID, b.DriverID, b.DriverRequested, b.StartTime, b.EndTime,
		b.PickupType, b.DeliveryLocation, b.DeliveryDetails, b.DeliveryFee, b.Days, b.TotalPrice, b.Notes, pq.Array(b.ValidIDs),
		b.Status, now, now).Scan(&b.ID)
	logger.DatabaseResult("INSERT", 1, err, "bookingID", b.ID)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.CreatedOn, b.UpdatedOn = now, now
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Booking %d not found", id)
	}
	return b, err
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `UPDATE bookings SET vehicle_id=$1, driver_id=$2, start_time=$3, end_time=$4, pickup_type=$5, delivery_location=$6,
	          delivery_details=$7, delivery_fee=$8, days=$9, total_price=$10, notes=$11, status=$12, cancelled_at=$13,
	          cancellation_reason=$14, refund_rate=$15, refund_amount=$16, refund_status=$17, refund_method=$18,
	          refund_account_number=$19, refund_account_name=$20, refund_bank_name=$21, refund_customer_notes=$22,
	          refund_notes=$23, refund_proof=$24, refund_processed_at=$25, updated_on=$26
	          WHERE id=$27`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", b.ID, "status", b.Status)

	now := time.Now()
	res, err := conn(ctx, r.db).ExecContext(ctx, query, b.VehicleID, b.DriverID, b.StartTime, b.EndTime, b.PickupType,
		b.DeliveryLocation, b.DeliveryDetails, b.DeliveryFee, b.Days, b.TotalPrice, b.Notes, b.Status, b.CancelledAt,
		b.CancellationReason, b.RefundRate, b.RefundAmount, b.RefundStatus, b.RefundPayout.Method,
		b.RefundPayout.AccountNumber, b.RefundPayout.AccountName, b.RefundPayout.BankName, b.RefundPayout.CustomerNotes,
		b.RefundNotes, b.RefundProof, b.RefundProcessedAt, now, b.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "bookingID", b.ID)
		return fmt.Errorf("update booking %d: %w", b.ID, err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil, "bookingID", b.ID)
	if n == 0 {
		return domain.NotFoundf("Booking %d not found", b.ID)
	}
	b.UpdatedOn = now
	return nil
}

func (r *bookingRepository) List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, int32, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		args = append(args, pq.Array(statusStrings(f.Statuses)))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if f.EndBefore != nil {
		args = append(args, *f.EndBefore)
		where = append(where, fmt.Sprintf("end_time < $%d", len(args)))
	}

	sqlStr := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	q := conn(ctx, r.db)
	var count int32
	if err := q.QueryRowContext(ctx, "SELECT count(*) FROM ("+sqlStr+") AS sub", args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sqlStr += " ORDER BY start_time ASC, id ASC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		sqlStr += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, f.PageSize, (page-1)*f.PageSize)
	}

	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, count, rows.Err()
}

func (r *bookingRepository) ListOverlapping(ctx context.Context, o repository.OverlapQuery) ([]domain.Booking, error) {
	var (
		sqlStr string
		args   []any
	)
	switch {
	case o.VehicleID != nil:
		sqlStr = `SELECT ` + bookingColumns + ` FROM bookings WHERE vehicle_id = $1`
		args = append(args, *o.VehicleID)
	case o.DriverID != nil:
		sqlStr = `SELECT ` + bookingColumns + ` FROM bookings WHERE driver_id = $1`
		args = append(args, *o.DriverID)
	default:
		return nil, errors.New("overlap query needs a vehicle or a driver")
	}

	args = append(args, o.End, o.Start)
	sqlStr += ` AND start_time < $2 AND end_time > $3 AND status <> 'cancelled'`
	if len(o.Statuses) > 0 {
		args = append(args, pq.Array(statusStrings(o.Statuses)))
		sqlStr += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	if o.ExcludeID != nil {
		args = append(args, *o.ExcludeID)
		sqlStr += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	sqlStr += " ORDER BY id ASC"

	rows, err := conn(ctx, r.db).QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
