package fulfillreservation

import (
	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/core"
)

// State is the snapshot of all rows the fulfillment decision depends on.
type State struct {
	Reservation   circulation.Reservation
	OpenLoanCount int
}

// Changes is what a successful fulfillment persists.
type Changes struct {
	FulfilledReservation circulation.Reservation
	NewLoan              circulation.Loan
}

// Decide implements the business logic for fulfilling a ready reservation.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A reservation with ReservationID
//	WHEN: FulfillReservation command is received
//	THEN: The reservation becomes fulfilled and an open loan is created for
//	      its borrower; the copy stays out as borrowed
//	ERROR: "ReservationNotReady" unless the reservation is ready for pickup
//	ERROR: "BorrowLimitExceeded" if the borrower is at their open-loan limit
//	IDEMPOTENCY: If the reservation is already fulfilled, no change is made
func Decide(
	s State,
	command Command,
	rules circulation.BorrowingRules,
	newLoanID uuid.UUID,
) (Changes, core.DecisionResult) {

	if s.Reservation.Status == circulation.ReservationStatusFulfilled {
		return Changes{}, core.IdempotentDecision()
	}

	if s.Reservation.Status != circulation.ReservationStatusReady {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindReservationNotReady, "reservation is not ready for pickup"))
	}

	if s.OpenLoanCount >= rules.MaxBooksAllowed {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindBorrowLimitExceeded, "borrower has reached the open-loan limit"))
	}

	fulfilled := s.Reservation
	fulfilled.Status = circulation.ReservationStatusFulfilled
	fulfilled.PickupDeadline = nil

	return Changes{
		FulfilledReservation: fulfilled,
		NewLoan: circulation.BuildLoan(
			newLoanID,
			s.Reservation.CopyID,
			s.Reservation.BorrowerID,
			command.BorrowerType,
			command.OccurredAt,
			rules.BorrowPeriodDays,
		),
	}, core.SuccessDecision()
}
