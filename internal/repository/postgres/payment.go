package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
)

const paymentColumns = `id, booking_id, type, method, reference_number, proof_artifact, status, approved_at, created_on`

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func scanPayment(row scanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	if err := row.Scan(&p.ID, &p.BookingID, &p.Type, &p.Method, &p.ReferenceNumber, &p.ProofArtifact, &p.Status, &p.ApprovedAt, &p.CreatedOn); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (booking_id, type, method, reference_number, proof_artifact, status, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	now := time.Now()
	err := conn(ctx, r.db).QueryRowContext(ctx, query, p.BookingID, p.Type, p.Method, p.ReferenceNumber, p.ProofArtifact, p.Status, now).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	p.CreatedOn = now
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Payment %d not found", id)
	}
	return p, err
}

// GetByReference returns nil and no error when the reference is unused.
func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference_number = $1`
	p, err := scanPayment(conn(ctx, r.db).QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `UPDATE payments SET status=$1, approved_at=$2 WHERE id=$3`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, p.Status, p.ApprovedAt, p.ID)
	return err
}

func (r *paymentRepository) ListByBooking(ctx context.Context, bookingID int32) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY id ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
