package postgres

import (
	"context"
	"database/sql"
	"errors"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
)

type vehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) GetByID(ctx context.Context, id int32) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	query := `SELECT id, name, brand, model, rental_rate, rental_rate_with_driver, deposit, fuel_capacity,
	          gasoline_late_fee_per_liter, late_fee_per_hour, late_fee_per_day, status
	          FROM vehicles WHERE id = $1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&v.ID, &v.Name, &v.Brand, &v.Model, &v.RentalRate,
		&v.RentalRateWithDriver, &v.Deposit, &v.FuelCapacity, &v.GasolineLateFeePerLiter, &v.LateFeePerHour,
		&v.LateFeePerDay, &v.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Vehicle %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *vehicleRepository) UpdateStatus(ctx context.Context, id int32, status domain.VehicleStatus) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE vehicles SET status = $1 WHERE id = $2`, status, id)
	return err
}

type driverRepository struct {
	db *sql.DB
}

func NewDriverRepository(db *sql.DB) repository.DriverRepository {
	return &driverRepository{db: db}
}

func (r *driverRepository) GetByID(ctx context.Context, id int32) (*domain.Driver, error) {
	d := &domain.Driver{}
	query := `SELECT id, name, phone, status, available FROM drivers WHERE id = $1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.Phone, &d.Status, &d.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("Driver %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *driverRepository) ListActive(ctx context.Context) ([]domain.Driver, error) {
	query := `SELECT id, name, phone, status, available FROM drivers WHERE status = $1 ORDER BY id ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, domain.DriverStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.Status, &d.Available); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *driverRepository) SetAvailable(ctx context.Context, id int32, available bool) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE drivers SET available = $1 WHERE id = $2`, available, id)
	return err
}
