package service

import (
	"context"
	"fmt"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/utils"
)

type handoverService struct {
	*engine
}

func (s *handoverService) ReleaseVehicle(ctx context.Context, caller domain.Caller, bookingID int32, req ReleaseVehicleRequest) (*domain.VehicleRelease, error) {
	logger.EnterMethod("handoverService.ReleaseVehicle", "bookingID", bookingID)
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	var release *domain.VehicleRelease
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		vehicle, err := s.Vehicles.GetByID(ctx, b.VehicleID)
		if err != nil {
			return err
		}
		existing, err := s.Releases.GetByBooking(ctx, b.ID)
		if err != nil {
			return err
		}

		tr, err := domain.NextTransition(b.Status, domain.EventRelease, domain.TransitionFacts{
			ReleaseExists: existing != nil,
			VehicleInUse:  vehicle.Status == domain.VehicleStatusInUse,
		})
		if err != nil {
			return err
		}

		releasedAt := s.now()
		if req.ReleasedAt != nil {
			releasedAt = *req.ReleasedAt
		}
		release = &domain.VehicleRelease{
			BookingID:      b.ID,
			VehicleID:      vehicle.ID,
			Odometer:       req.Odometer,
			FuelLevel:      req.FuelLevel,
			ConditionNotes: req.ConditionNotes,
			Images:         req.Images,
			ReleasedAt:     releasedAt,
		}
		if err := s.Releases.Create(ctx, release); err != nil {
			return err
		}

		b.Status = tr.To
		if err := s.Bookings.Update(ctx, b); err != nil {
			return err
		}
		if tr.Has(domain.EffectVehicleInUse) {
			if err := s.Vehicles.UpdateStatus(ctx, vehicle.ID, domain.VehicleStatusInUse); err != nil {
				return err
			}
		}

		out.user(b.UserID, domain.EventVehicleReleased, domain.BookingSubject(b.ID), Message{
			Title: "Vehicle Released",
			Body:  fmt.Sprintf("%s has been released to you for booking #%d. Please return it by %s.", vehicle.Name, b.ID, formatTime(b.EndTime)),
			Data: map[string]any{
				"booking_id":  b.ID,
				"vehicle_id":  vehicle.ID,
				"released_at": releasedAt,
				"fuel_level":  req.FuelLevel,
			},
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("handoverService.ReleaseVehicle", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("handoverService.ReleaseVehicle", "bookingID", bookingID, "releaseID", release.ID)
	return release, nil
}

// SubmitReturn records the customer's side of a vehicle return.
func (s *handoverService) SubmitReturn(ctx context.Context, caller domain.Caller, bookingID int32, req SubmitReturnRequest) (*domain.VehicleReturn, error) {
	logger.EnterMethod("handoverService.SubmitReturn", "bookingID", bookingID, "userID", caller.UserID)
	if !req.Refund.IsZero() {
		if err := validatePayout(req.Refund); err != nil {
			return nil, err
		}
	}

	var ret *domain.VehicleReturn
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := checkOwner(caller, b); err != nil {
			return err
		}
		existing, err := s.Returns.GetByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		tr, err := domain.NextTransition(b.Status, domain.EventSubmitReturn, domain.TransitionFacts{ReturnExists: existing != nil})
		if err != nil {
			return err
		}

		now := s.now()
		returnedAt := now
		if req.ReturnedAt != nil {
			returnedAt = *req.ReturnedAt
		}
		ret = &domain.VehicleReturn{
			BookingID:              b.ID,
			VehicleID:              b.VehicleID,
			Status:                 domain.ReturnStatusCustomerSubmitted,
			ReturnedAt:             &returnedAt,
			Odometer:               req.Odometer,
			FuelLevel:              req.FuelLevel,
			CustomerImages:         req.Images,
			CustomerConditionNotes: req.ConditionNotes,
			CustomerRefund:         req.Refund,
			CustomerSubmittedAt:    &now,
			DepositStatus:          domain.DepositStatusPending,
		}
		if err := s.Returns.Create(ctx, ret); err != nil {
			return err
		}

		b.Status = tr.To
		if err := s.Bookings.Update(ctx, b); err != nil {
			return err
		}

		data := map[string]any{
			"booking_id":  b.ID,
			"return_id":   ret.ID,
			"returned_at": returnedAt,
			"fuel_level":  req.FuelLevel,
		}
		out.user(b.UserID, domain.EventVehicleReturnSubmitted, domain.BookingSubject(b.ID), Message{
			Title: "Return Submitted",
			Body:  fmt.Sprintf("Your return for booking #%d was submitted and is awaiting inspection.", b.ID),
			Data:  data,
		})
		out.admins(domain.EventVehicleReturnSubmitted, domain.BookingSubject(b.ID), Message{
			Title: "Vehicle Return Submitted",
			Body:  fmt.Sprintf("The customer submitted a return for booking #%d.", b.ID),
			Data:  data,
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("handoverService.SubmitReturn", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("handoverService.SubmitReturn", "bookingID", bookingID, "returnID", ret.ID)
	return ret, nil
}

// ReturnVehicle finalises a return: assesses fees, completes the booking and
// frees the vehicle and driver. A customer-submitted return is updated in
// place, keeping what the customer reported.
func (s *handoverService) ReturnVehicle(ctx context.Context, caller domain.Caller, bookingID int32, req ReturnVehicleRequest) (*ReturnResult, error) {
	logger.EnterMethod("handoverService.ReturnVehicle", "bookingID", bookingID)
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	fees := []struct {
		name  string
		value *float64
	}{
		{"Late fee", req.LateFee},
		{"Damage fee", req.DamageFee},
		{"Cleaning fee", req.CleaningFee},
		{"Deposit refund amount", req.DepositRefundAmount},
	}
	for _, f := range fees {
		if err := validateAmount(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if req.DepositStatus != "" && !req.DepositStatus.Valid() {
		return nil, domain.Validationf("Deposit status must be pending, refunded or withheld")
	}

	var result *ReturnResult
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		tr, err := domain.NextTransition(b.Status, domain.EventFinalizeReturn, domain.TransitionFacts{})
		if err != nil {
			return err
		}
		vehicle, err := s.Vehicles.GetByID(ctx, b.VehicleID)
		if err != nil {
			return err
		}
		ret, err := s.Returns.GetByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		isNew := ret == nil
		if isNew {
			ret = &domain.VehicleReturn{
				BookingID:     b.ID,
				VehicleID:     b.VehicleID,
				DepositStatus: domain.DepositStatusPending,
			}
		}

		now := s.now()
		switch {
		case req.ReturnedAt != nil:
			ret.ReturnedAt = req.ReturnedAt
		case ret.ReturnedAt == nil:
			ret.ReturnedAt = &now
		}
		if req.Odometer != nil {
			ret.Odometer = req.Odometer
		}
		if req.FuelLevel != nil {
			ret.FuelLevel = *req.FuelLevel
		}
		ret.ConditionNotes = req.ConditionNotes
		ret.Images = req.Images

		if req.LateFee != nil {
			ret.LateFee = utils.RoundMoney(*req.LateFee)
		} else {
			ret.LateFee = utils.VehicleLateFee(vehicle, b.EndTime, ret.ReturnedAt)
		}
		if req.DamageFee != nil {
			ret.DamageFee = utils.RoundMoney(*req.DamageFee)
		}
		if req.CleaningFee != nil {
			ret.CleaningFee = utils.RoundMoney(*req.CleaningFee)
		}
		var level *string
		if ret.FuelLevel != "" {
			level = &ret.FuelLevel
		}
		ret.FuelFee = utils.FuelShortageFee(vehicle.FuelCapacity, utils.ParseFuelFraction(level), vehicle.GasolineLateFeePerLiter)

		if req.DepositStatus != "" && req.DepositStatus != domain.DepositStatusPending {
			payments, err := s.Payments.ListByBooking(ctx, b.ID)
			if err != nil {
				return err
			}
			settle := DepositRefundRequest{
				Status: req.DepositStatus,
				Amount: req.DepositRefundAmount,
				Notes:  req.DepositRefundNotes,
				Proof:  req.DepositRefundProof,
				Method: req.RefundMethod,
			}
			if err := settleDeposit(ret, vehicle, payments, settle, now); err != nil {
				return err
			}
		}

		ret.Status = domain.ReturnStatusCompleted
		ret.AdminProcessedAt = &now
		if isNew {
			err = s.Returns.Create(ctx, ret)
		} else {
			err = s.Returns.Update(ctx, ret)
		}
		if err != nil {
			return err
		}

		b.Status = tr.To
		if err := s.Bookings.Update(ctx, b); err != nil {
			return err
		}
		if tr.Has(domain.EffectVehicleAvailable) {
			if err := s.Vehicles.UpdateStatus(ctx, vehicle.ID, domain.VehicleStatusAvailable); err != nil {
				return err
			}
		}
		if tr.Has(domain.EffectDriverAvailable) && b.DriverID != nil {
			if err := s.Drivers.SetAvailable(ctx, *b.DriverID, true); err != nil {
				return err
			}
		}

		defaultRefund := utils.DefaultDepositRefund(vehicle.Deposit, ret.LateFee, ret.DamageFee, ret.CleaningFee, ret.FuelFee)
		result = &ReturnResult{
			Booking:              b,
			Return:               ret,
			LateFee:              utils.CalculateLateFee(b.EndTime, ret.ReturnedAt, vehicle.LateFeePerHour, vehicle.LateFeePerDay),
			DefaultDepositRefund: defaultRefund,
		}

		out.user(b.UserID, domain.EventVehicleReturnCompleted, domain.BookingSubject(b.ID), Message{
			Title: "Return Completed",
			Body:  fmt.Sprintf("The return of %s for booking #%d is complete. Total fees: %.2f.", vehicle.Name, b.ID, ret.TotalFees()),
			Data: map[string]any{
				"booking_id":             b.ID,
				"late_fee":               ret.LateFee,
				"damage_fee":             ret.DamageFee,
				"cleaning_fee":           ret.CleaningFee,
				"fuel_fee":               ret.FuelFee,
				"total_fees":             ret.TotalFees(),
				"deposit_status":         ret.DepositStatus,
				"default_deposit_refund": defaultRefund,
			},
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("handoverService.ReturnVehicle", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("handoverService.ReturnVehicle", "bookingID", bookingID, "totalFees", result.Return.TotalFees())
	return result, nil
}

func (s *handoverService) ProcessDepositRefund(ctx context.Context, caller domain.Caller, bookingID int32, req DepositRefundRequest) (*domain.VehicleReturn, error) {
	logger.EnterMethod("handoverService.ProcessDepositRefund", "bookingID", bookingID, "status", req.Status)
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if req.Status != domain.DepositStatusRefunded && req.Status != domain.DepositStatusWithheld {
		return nil, domain.Validationf("Deposit status must be refunded or withheld")
	}
	if err := validateAmount("Deposit refund amount", req.Amount); err != nil {
		return nil, err
	}

	var ret *domain.VehicleReturn
	err := s.run(ctx, func(ctx context.Context, out *outbox) error {
		b, err := s.lockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		ret, err = s.Returns.GetByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		if ret == nil {
			return domain.NotFoundf("No return has been recorded for booking #%d", b.ID)
		}
		vehicle, err := s.Vehicles.GetByID(ctx, b.VehicleID)
		if err != nil {
			return err
		}
		payments, err := s.Payments.ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := settleDeposit(ret, vehicle, payments, req, s.now()); err != nil {
			return err
		}
		if err := s.Returns.Update(ctx, ret); err != nil {
			return err
		}

		body := fmt.Sprintf("The deposit for booking #%d has been withheld.", b.ID)
		if ret.DepositStatus == domain.DepositStatusRefunded {
			body = fmt.Sprintf("Your deposit refund of %.2f for booking #%d has been processed.", *ret.DepositRefundAmount, b.ID)
		}
		out.user(b.UserID, domain.EventDepositRefundProcessed, domain.BookingSubject(b.ID), Message{
			Title: "Deposit Update",
			Body:  body,
			Data: map[string]any{
				"booking_id":     b.ID,
				"deposit_status": ret.DepositStatus,
				"refund_amount":  ret.DepositRefundAmount,
				"refund_method":  ret.RefundMethod,
			},
		})
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("handoverService.ProcessDepositRefund", err, "bookingID", bookingID)
		return nil, err
	}
	logger.ExitMethod("handoverService.ProcessDepositRefund", "bookingID", bookingID, "status", ret.DepositStatus)
	return ret, nil
}

// settleDeposit applies a deposit disposition to a return. A refunded deposit
// is final. The refunded amount defaults to the deposit less assessed fees.
func settleDeposit(ret *domain.VehicleReturn, vehicle *domain.Vehicle, payments []domain.Payment, req DepositRefundRequest, now time.Time) error {
	if req.Status != domain.DepositStatusRefunded && req.Status != domain.DepositStatusWithheld {
		return domain.Validationf("Deposit status must be refunded or withheld")
	}
	if ret.DepositStatus == domain.DepositStatusRefunded {
		return domain.Conflictf("Deposit has already been refunded")
	}
	if !domain.AnyRefundEligible(payments) {
		return domain.Conflictf("No payment was submitted for this booking")
	}
	if req.Method != "" && !req.Method.Valid() {
		return domain.Validationf("Refund method must be gcash, bank_transfer or cash")
	}

	amount := 0.0
	if req.Status == domain.DepositStatusRefunded {
		amount = utils.DefaultDepositRefund(vehicle.Deposit, ret.LateFee, ret.DamageFee, ret.CleaningFee, ret.FuelFee)
		if req.Amount != nil {
			amount = utils.RoundMoney(*req.Amount)
		}
		if amount > vehicle.Deposit {
			return domain.Validationf("Refund amount cannot exceed the deposit of %.2f", vehicle.Deposit)
		}
		ret.DepositRefundedAt = &now
	}

	ret.DepositStatus = req.Status
	ret.DepositRefundAmount = &amount
	ret.DepositRefundNotes = req.Notes
	ret.DepositRefundProof = req.Proof
	ret.RefundMethod = req.Method
	if ret.RefundMethod == "" {
		ret.RefundMethod = ret.CustomerRefund.Method
	}
	return nil
}
