package cancelreservation

import (
	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/core"
)

// State is the snapshot of all rows the cancellation decision depends on.
type State struct {
	Reservation circulation.Reservation
}

// Changes is what a successful cancellation persists. Compaction and, when the
// head was cancelled, re-promotion happen in the handler afterwards, inside
// the same transaction.
type Changes struct {
	CancelledReservation circulation.Reservation

	// WasReady marks that the cancelled reservation held the copy, so the
	// next borrower must be offered the copy (or the copy freed).
	WasReady bool
}

// Decide implements the business logic for cancelling a reservation. This is
// a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A reservation with ReservationID
//	WHEN: CancelReservation command is received
//	THEN: The reservation becomes cancelled and leaves the queue
//	ERROR: "ReservationNotActive" if the reservation is fulfilled or expired
//	IDEMPOTENCY: If the reservation is already cancelled, no change is made
func Decide(s State, command Command) (Changes, core.DecisionResult) {
	if s.Reservation.Status == circulation.ReservationStatusCancelled {
		return Changes{}, core.IdempotentDecision()
	}

	if !s.Reservation.IsActive() {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindReservationNotActive, "reservation is not active"))
	}

	cancelled := s.Reservation
	wasReady := cancelled.Status == circulation.ReservationStatusReady
	cancelled.Status = circulation.ReservationStatusCancelled
	cancelled.CancelReason = command.Reason
	cancelled.PickupDeadline = nil

	reservationID := cancelled.ID
	notification := circulation.NotificationRequest{
		BorrowerID:           cancelled.BorrowerID,
		Type:                 circulation.NotificationReservationGone,
		Title:                "Reservation cancelled",
		Message:              "Your reservation has been cancelled: " + command.Reason,
		RelatedReservationID: &reservationID,
		Priority:             circulation.PriorityNormal,
	}

	return Changes{
		CancelledReservation: cancelled,
		WasReady:             wasReady,
	}, core.SuccessDecision(notification)
}
