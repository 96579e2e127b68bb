package utils

import (
	"fmt"
	"math"
	"time"

	"vehicle-rental-backend/internal/domain"
)

// FlatLateFeePerHour is charged when a vehicle has no late-fee tariff.
const FlatLateFeePerHour = 100.0

// LateFeeDetails explains how a late fee was arrived at.
type LateFeeDetails struct {
	Amount           float64 `json:"amount"`
	AmountText       string  `json:"amount_text"`
	LateMinutesTotal int64   `json:"late_minutes_total"`
	LateDays         int64   `json:"late_days"`
	LateHours        int64   `json:"late_hours"`
	RemainingMinutes int64   `json:"remaining_minutes"`
	HalfHourApplied  bool    `json:"half_hour_applied"`
}

func noLateFee() LateFeeDetails {
	return LateFeeDetails{AmountText: "0.00"}
}

// CalculateLateFee charges whole late days at perDay, the remaining whole
// hours at perHour, and half of perHour when 30 or more leftover minutes remain.
func CalculateLateFee(scheduledEnd time.Time, actualReturn *time.Time, perHour, perDay float64) LateFeeDetails {
	if actualReturn == nil || !actualReturn.After(scheduledEnd) {
		return noLateFee()
	}

	minutes := int64(actualReturn.Sub(scheduledEnd) / time.Minute)
	d := LateFeeDetails{
		LateMinutesTotal: minutes,
		LateDays:         minutes / 1440,
	}
	rem := minutes % 1440
	d.LateHours = rem / 60
	d.RemainingMinutes = rem % 60

	amount := float64(d.LateDays)*perDay + float64(d.LateHours)*perHour
	if d.RemainingMinutes >= 30 {
		d.HalfHourApplied = true
		amount += perHour / 2
	}

	d.Amount = RoundMoney(amount)
	d.AmountText = fmt.Sprintf("%.2f", d.Amount)
	return d
}

// FlatLateFee charges FlatLateFeePerHour for every whole hour late.
func FlatLateFee(scheduledEnd, actualReturn time.Time) float64 {
	if !actualReturn.After(scheduledEnd) {
		return 0
	}
	hours := int64(actualReturn.Sub(scheduledEnd) / time.Hour)
	return RoundMoney(float64(hours) * FlatLateFeePerHour)
}

// VehicleLateFee applies the vehicle's late tariff, or the flat hourly rate
// when the vehicle has none.
func VehicleLateFee(vehicle *domain.Vehicle, scheduledEnd time.Time, actualReturn *time.Time) float64 {
	if vehicle.HasLateRates() {
		return CalculateLateFee(scheduledEnd, actualReturn, vehicle.LateFeePerHour, vehicle.LateFeePerDay).Amount
	}
	if actualReturn == nil {
		return 0
	}
	return FlatLateFee(scheduledEnd, *actualReturn)
}

// FuelShortageFee charges for the litres missing from a full tank.
func FuelShortageFee(capacity, fraction, perLiter float64) float64 {
	if capacity <= 0 || perLiter <= 0 {
		return 0
	}
	missing := capacity * (1 - clamp01(fraction))
	return RoundMoney(missing * perLiter)
}

// DefaultDepositRefund is what is left of the deposit after fees, never negative.
func DefaultDepositRefund(deposit, lateFee, damageFee, cleaningFee, fuelFee float64) float64 {
	return RoundMoney(math.Max(0, deposit-(lateFee+damageFee+cleaningFee+fuelFee)))
}

// CancellationRefundRate returns the share of the deposit refunded when a
// booking is cancelled hoursUntilStart hours before it begins.
func CancellationRefundRate(hoursUntilStart float64) float64 {
	switch {
	case hoursUntilStart >= 168:
		return 1
	case hoursUntilStart >= 24:
		return 0.5
	default:
		return 0
	}
}

// CancellationRefund is the refund owed for a cancellation at now.
type CancellationRefund struct {
	Rate   float64
	Amount float64
	Status domain.RefundStatus
}

// CalculateCancellationRefund applies the refund staircase to the deposit.
// Nothing is owed unless money was actually submitted for the booking.
func CalculateCancellationRefund(deposit float64, start, now time.Time, eligible bool) CancellationRefund {
	rate := CancellationRefundRate(start.Sub(now).Hours())
	r := CancellationRefund{Rate: rate, Status: domain.RefundStatusNotApplicable}
	if !eligible {
		return r
	}
	amount := RoundMoney(deposit * rate)
	if amount > 0 {
		r.Amount = amount
		r.Status = domain.RefundStatusPending
	}
	return r
}
