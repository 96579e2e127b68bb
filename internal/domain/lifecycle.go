package domain

import "fmt"

// BookingEvent is something that moves a booking along its lifecycle.
type BookingEvent string

const (
	EventPaymentApproved BookingEvent = "payment_approved"
	EventRelease         BookingEvent = "release"
	EventSubmitReturn    BookingEvent = "submit_return"
	EventFinalizeReturn  BookingEvent = "finalize_return"
	EventCancel          BookingEvent = "cancel"
	EventConflictCancel  BookingEvent = "conflict_cancel"
)

// SideEffect is work the engine must carry out after a transition is applied.
type SideEffect string

const (
	EffectResolveConflicts SideEffect = "resolve_conflicts"
	EffectVehicleInUse     SideEffect = "vehicle_in_use"
	EffectVehicleAvailable SideEffect = "vehicle_available"
	EffectDriverAvailable  SideEffect = "driver_available"
	EffectComputeRefund    SideEffect = "compute_refund"
)

// TransitionFacts is the state outside the booking row that guards consult.
type TransitionFacts struct {
	DepositApproved bool
	RentalApproved  bool
	ReleaseExists   bool
	ReturnExists    bool
	VehicleInUse    bool
}

type Transition struct {
	From    BookingStatus
	To      BookingStatus
	Effects []SideEffect
}

// Changed is false for self-loops, which are not treated as transitions.
func (t Transition) Changed() bool { return t.From != t.To }

func (t Transition) Has(effect SideEffect) bool {
	for _, e := range t.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

// InitialBookingStatus is the status every new booking starts in.
const InitialBookingStatus = BookingStatusPending

// NextTransition is the booking state machine. It returns the status the
// booking moves to and the side effects to apply, or an error when the event
// is not allowed from the current status.
func NextTransition(current BookingStatus, event BookingEvent, facts TransitionFacts) (Transition, error) {
	t := Transition{From: current, To: current}

	switch event {
	case EventPaymentApproved:
		if !in(current, BookingStatusPending, BookingStatusConfirmed, BookingStatusForRelease) {
			return t, Conflictf("Booking is not awaiting payment (status: %s)", current)
		}
		if facts.DepositApproved && facts.RentalApproved {
			t.To = BookingStatusForRelease
		} else {
			t.To = BookingStatusConfirmed
		}
		if current == BookingStatusForRelease {
			t.To = BookingStatusForRelease
		}
		if t.Changed() {
			t.Effects = []SideEffect{EffectResolveConflicts}
		}

	case EventRelease:
		if current != BookingStatusForRelease {
			return t, Conflictf("Booking is not ready for release (status: %s)", current)
		}
		if facts.ReleaseExists {
			return t, Conflictf("Vehicle has already been released for this booking")
		}
		if facts.VehicleInUse {
			return t, Conflictf("Vehicle is currently in use")
		}
		t.To = BookingStatusReleased
		t.Effects = []SideEffect{EffectVehicleInUse}

	case EventSubmitReturn:
		if current != BookingStatusReleased {
			return t, Conflictf("Booking is not currently released (status: %s)", current)
		}
		if facts.ReturnExists {
			return t, Conflictf("Return has already been submitted for this booking")
		}
		t.To = BookingStatusPendingReturn

	case EventFinalizeReturn:
		if !in(current, BookingStatusReleased, BookingStatusPendingReturn) {
			return t, Conflictf("Booking is not awaiting return (status: %s)", current)
		}
		t.To = BookingStatusCompleted
		t.Effects = []SideEffect{EffectVehicleAvailable, EffectDriverAvailable}

	case EventCancel, EventConflictCancel:
		if in(current, BookingStatusCancelled, BookingStatusCompleted) {
			return t, Conflictf("Booking is already %s", current)
		}
		if !in(current, ActiveScheduleStatuses...) {
			return t, Conflictf("Booking cannot be cancelled once the vehicle is released")
		}
		t.To = BookingStatusCancelled
		t.Effects = []SideEffect{EffectComputeRefund}

	default:
		return t, fmt.Errorf("unknown booking event %q", event)
	}

	return t, nil
}

func in(s BookingStatus, set ...BookingStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
