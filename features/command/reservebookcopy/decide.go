package reservebookcopy

import (
	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/core"
)

// State is the snapshot of all rows the reserve decision depends on.
type State struct {
	Copy                     circulation.BookCopy
	OpenLoan                 *circulation.Loan
	ActiveReservations       []circulation.Reservation
	BorrowerReservationCount int
}

// Changes is what a successful reserve persists.
type Changes struct {
	NewReservation circulation.Reservation

	// PromoteImmediately is set when the copy is free, so the fresh
	// reservation goes straight to ready via the normal promotion flow.
	PromoteImmediately bool
}

// Decide implements the business logic for reserving a copy. This is a pure
// function with no side effects.
//
// Business Rules:
//
//	GIVEN: A book copy with CopyID and a borrower with BorrowerID
//	WHEN: ReserveBookCopy command is received
//	THEN: A waiting reservation takes the next dense queue position
//	ERROR: "CopyUnavailable" if the copy is in maintenance or disposed
//	ERROR: "AlreadyBorrowedByUser" if the borrower already holds the copy
//	ERROR: "AlreadyReserved" if the borrower is already queued for the copy
//	ERROR: "ReservationLimitExceeded" if the borrower is at their reservation limit
func Decide(
	s State,
	command Command,
	rules circulation.BorrowingRules,
	newReservationID uuid.UUID,
) (Changes, core.DecisionResult) {

	if !s.Copy.IsCirculating() {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindCopyUnavailable, "copy is not in circulation"))
	}

	if s.OpenLoan != nil && s.OpenLoan.BorrowerID == command.BorrowerID {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindAlreadyBorrowedByUser, "borrower already holds this copy"))
	}

	for _, r := range s.ActiveReservations {
		if r.BorrowerID == command.BorrowerID {
			return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
				circulation.KindAlreadyReserved, "borrower is already queued for this copy"))
		}
	}

	if s.BorrowerReservationCount >= rules.ReservationLimit {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindReservationLimitExceeded, "borrower has reached the reservation limit"))
	}

	changes := Changes{
		NewReservation: circulation.BuildReservation(
			newReservationID,
			command.CopyID,
			command.BorrowerID,
			command.OccurredAt,
			circulation.NextQueuePosition(s.ActiveReservations),
		),
		PromoteImmediately: s.Copy.Status == circulation.CopyStatusAvailable,
	}

	return changes, core.SuccessDecision()
}
