package domain

type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusInUse       VehicleStatus = "in_use"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

type Vehicle struct {
	ID                      int32         `json:"id"`
	Name                    string        `json:"name"`
	Brand                   string        `json:"brand"`
	Model                   string        `json:"model"`
	RentalRate              float64       `json:"rental_rate"`
	RentalRateWithDriver    float64       `json:"rental_rate_with_driver"`
	Deposit                 float64       `json:"deposit"`
	FuelCapacity            float64       `json:"fuel_capacity"`
	GasolineLateFeePerLiter float64       `json:"gasoline_late_fee_per_liter"`
	LateFeePerHour          float64       `json:"late_fee_per_hour"`
	LateFeePerDay           float64       `json:"late_fee_per_day"`
	Status                  VehicleStatus `json:"status"`
}

// DailyRate is the per-day price depending on whether a driver comes along.
func (v *Vehicle) DailyRate(withDriver bool) float64 {
	if withDriver {
		return v.RentalRateWithDriver
	}
	return v.RentalRate
}

// HasLateRates reports whether the vehicle carries its own late-fee tariff.
func (v *Vehicle) HasLateRates() bool {
	return v.LateFeePerHour > 0 || v.LateFeePerDay > 0
}

type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "active"
	DriverStatusInactive DriverStatus = "inactive"
)

type Driver struct {
	ID        int32        `json:"id"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone"`
	Status    DriverStatus `json:"status"`
	Available bool         `json:"available"`
}
