package utils

import (
	"math"
	"sort"
	"time"

	"vehicle-rental-backend/internal/domain"
)

// PriceBreakdown is the quoted price of a booking.
type PriceBreakdown struct {
	Days        int32   `json:"days"`
	DailyRate   float64 `json:"daily_rate"`
	RentalPrice float64 `json:"rental_price"`
	DeliveryFee float64 `json:"delivery_fee"`
	TotalPrice  float64 `json:"total_price"`
}

// DeliveryOption is one entry of the delivery fee table.
type DeliveryOption struct {
	Location string  `json:"location"`
	Fee      float64 `json:"fee"`
}

// RoundMoney rounds an amount to two decimal places.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// RentalDays returns the number of billable days between start and end.
// Any started day counts as a full day and the minimum is one.
func RentalDays(start, end time.Time) int32 {
	hours := end.Sub(start).Hours()
	days := int32(math.Ceil(hours / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// DeliveryFee looks up the flat fee for a delivery location.
func DeliveryFee(location string) (float64, bool) {
	fee, ok := domain.DeliveryFees[location]
	return fee, ok
}

// DeliveryOptions returns the delivery fee table ordered by location name.
func DeliveryOptions() []DeliveryOption {
	opts := make([]DeliveryOption, 0, len(domain.DeliveryFees))
	for loc, fee := range domain.DeliveryFees {
		opts = append(opts, DeliveryOption{Location: loc, Fee: fee})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Location < opts[j].Location })
	return opts
}

// CalculateBookingPrice prices a booking of vehicle from start to end.
// The delivery fee is only charged for delivery bookings.
func CalculateBookingPrice(vehicle *domain.Vehicle, start, end time.Time, withDriver bool, pickup domain.PickupType, location string) PriceBreakdown {
	days := RentalDays(start, end)
	rate := vehicle.DailyRate(withDriver)

	var deliveryFee float64
	if pickup == domain.PickupTypeDelivery {
		deliveryFee, _ = DeliveryFee(location)
	}

	rental := RoundMoney(rate * float64(days))
	return PriceBreakdown{
		Days:        days,
		DailyRate:   rate,
		RentalPrice: rental,
		DeliveryFee: deliveryFee,
		TotalPrice:  RoundMoney(rental + deliveryFee),
	}
}
