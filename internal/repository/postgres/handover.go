package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"

	"github.com/lib/pq"
)

type vehicleReleaseRepository struct {
	db *sql.DB
}

func NewVehicleReleaseRepository(db *sql.DB) repository.VehicleReleaseRepository {
	return &vehicleReleaseRepository{db: db}
}

func (r *vehicleReleaseRepository) Create(ctx context.Context, rel *domain.VehicleRelease) error {
	query := `INSERT INTO vehicle_releases (booking_id, vehicle_id, odometer, fuel_level, condition_notes, images, released_at, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now()
	err := conn(ctx, r.db).QueryRowContext(ctx, query, rel.BookingID, rel.VehicleID, rel.Odometer, rel.FuelLevel,
		rel.ConditionNotes, pq.Array(rel.Images), rel.ReleasedAt, now).Scan(&rel.ID)
	if err != nil {
		return fmt.Errorf("insert vehicle release: %w", err)
	}
	rel.CreatedOn = now
	return nil
}

func (r *vehicleReleaseRepository) GetByBooking(ctx context.Context, bookingID int32) (*domain.VehicleRelease, error) {
	query := `SELECT id, booking_id, vehicle_id, odometer, fuel_level, condition_notes, images, released_at, created_on
	          FROM vehicle_releases WHERE booking_id = $1`
	rel := &domain.VehicleRelease{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, bookingID).Scan(&rel.ID, &rel.BookingID, &rel.VehicleID, &rel.Odometer,
		&rel.FuelLevel, &rel.ConditionNotes, pq.Array(&rel.Images), &rel.ReleasedAt, &rel.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rel, nil
}

const returnColumns = `id, booking_id, vehicle_id, status, returned_at, odometer, fuel_level, customer_images,
	customer_condition_notes, customer_refund_method, customer_account_number, customer_account_name,
	customer_bank_name, customer_refund_notes, customer_submitted_at, condition_notes, images, late_fee,
	damage_fee, cleaning_fee, fuel_fee, deposit_status, deposit_refund_amount, deposit_refund_notes,
	deposit_refund_proof, deposit_refunded_at, refund_method, admin_processed_at, created_on, updated_on`

type vehicleReturnRepository struct {
	db *sql.DB
}

func NewVehicleReturnRepository(db *sql.DB) repository.VehicleReturnRepository {
	return &vehicleReturnRepository{db: db}
}

func returnArgs(ret *domain.VehicleReturn) []any {
	return []any{
		ret.BookingID, ret.VehicleID, ret.Status, ret.ReturnedAt, ret.Odometer, ret.FuelLevel, pq.Array(ret.CustomerImages),
		ret.CustomerConditionNotes, ret.CustomerRefund.Method, ret.CustomerRefund.AccountNumber, ret.CustomerRefund.AccountName,
		ret.CustomerRefund.BankName, ret.CustomerRefund.CustomerNotes, ret.CustomerSubmittedAt, ret.ConditionNotes,
		pq.Array(ret.Images), ret.LateFee, ret.DamageFee, ret.CleaningFee, ret.FuelFee, ret.DepositStatus,
		ret.DepositRefundAmount, ret.DepositRefundNotes, pq.Array(ret.DepositRefundProof), ret.DepositRefundedAt,
		ret.RefundMethod, ret.AdminProcessedAt,
	}
}

func (r *vehicleReturnRepository) Create(ctx context.Context, ret *domain.VehicleReturn) error {
	logger.EnterMethod("vehicleReturnRepository.Create", "bookingID", ret.BookingID, "status", ret.Status)

	query := `INSERT INTO vehicle_returns (booking_id, vehicle_id, status, returned_at, odometer, fuel_level, customer_images,
	          customer_condition_notes, customer_refund_method, customer_account_number, customer_account_name,
	          customer_bank_name, customer_refund_notes, customer_submitted_at, condition_notes, images, late_fee,
	          damage_fee, cleaning_fee, fuel_fee, deposit_status, deposit_refund_amount, deposit_refund_notes,
	          deposit_refund_proof, deposit_refunded_at, refund_method, admin_processed_at, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
	                  $21, $22, $23, $24, $25, $26, $27, $28, $29) RETURNING id`
	now := time.Now()
	args := append(returnArgs(ret), now, now)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&ret.ID)
	if err != nil {
		logger.ExitMethodWithError("vehicleReturnRepository.Create", err, "bookingID", ret.BookingID)
		return fmt.Errorf("insert vehicle return: %w", err)
	}
	ret.CreatedOn, ret.UpdatedOn = now, now
	logger.ExitMethod("vehicleReturnRepository.Create", "returnID", ret.ID)
	return nil
}

func (r *vehicleReturnRepository) GetByBooking(ctx context.Context, bookingID int32) (*domain.VehicleReturn, error) {
	query := `SELECT ` + returnColumns + ` FROM vehicle_returns WHERE booking_id = $1`
	ret := &domain.VehicleReturn{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, bookingID).Scan(&ret.ID, &ret.BookingID, &ret.VehicleID, &ret.Status,
		&ret.ReturnedAt, &ret.Odometer, &ret.FuelLevel, pq.Array(&ret.CustomerImages), &ret.CustomerConditionNotes,
		&ret.CustomerRefund.Method, &ret.CustomerRefund.AccountNumber, &ret.CustomerRefund.AccountName,
		&ret.CustomerRefund.BankName, &ret.CustomerRefund.CustomerNotes, &ret.CustomerSubmittedAt, &ret.ConditionNotes,
		pq.Array(&ret.Images), &ret.LateFee, &ret.DamageFee, &ret.CleaningFee, &ret.FuelFee, &ret.DepositStatus,
		&ret.DepositRefundAmount, &ret.DepositRefundNotes, pq.Array(&ret.DepositRefundProof), &ret.DepositRefundedAt,
		&ret.RefundMethod, &ret.AdminProcessedAt, &ret.CreatedOn, &ret.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *vehicleReturnRepository) Update(ctx context.Context, ret *domain.VehicleReturn) error {
	query := `UPDATE vehicle_returns SET booking_id=$1, vehicle_id=$2, status=$3, returned_at=$4, odometer=$5, fuel_level=$6,
	          customer_images=$7, customer_condition_notes=$8, customer_refund_method=$9, customer_account_number=$10,
	          customer_account_name=$11, customer_bank_name=$12, customer_refund_notes=$13, customer_submitted_at=$14,
	          condition_notes=$15, images=$16, late_fee=$17, damage_fee=$18, cleaning_fee=$19, fuel_fee=$20,
	          deposit_status=$21, deposit_refund_amount=$22, deposit_refund_notes=$23, deposit_refund_proof=$24,
	          deposit_refunded_at=$25, refund_method=$26, admin_processed_at=$27, updated_on=$28
	          WHERE id=$29`
	now := time.Now()
	args := append(returnArgs(ret), now, ret.ID)
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update vehicle return %d: %w", ret.ID, err)
	}
	ret.UpdatedOn = now
	return nil
}
