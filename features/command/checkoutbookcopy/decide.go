package checkoutbookcopy

import (
	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/core"
)

// State is the snapshot of all rows the checkout decision depends on, loaded
// under row locks inside the handler's transaction.
type State struct {
	Copy               circulation.BookCopy
	OpenLoan           *circulation.Loan
	ActiveReservations []circulation.Reservation
	OpenLoanCount      int
}

// Changes is what a successful checkout persists.
type Changes struct {
	NewLoan circulation.Loan

	// FulfilledReservation is set when the borrower checked out a copy that
	// was held ready for them; it leaves the queue alongside the checkout.
	FulfilledReservation *circulation.Reservation
}

// Decide implements the business logic to determine whether a copy can be
// checked out to a borrower. This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A book copy with CopyID and a borrower with BorrowerID
//	WHEN: CheckoutBookCopy command is received
//	THEN: An open loan is created and the copy becomes borrowed
//	ERROR: "CopyUnavailable" if the copy is in maintenance or disposed
//	ERROR: "CopyUnavailable" if another borrower holds an open loan on the copy
//	ERROR: "CopyUnavailable" if the copy is held ready for another borrower
//	ERROR: "BorrowLimitExceeded" if the borrower is at their open-loan limit
//	IDEMPOTENCY: If this borrower already holds the open loan, no change is made
func Decide(
	s State,
	command Command,
	rules circulation.BorrowingRules,
	newLoanID uuid.UUID,
) (Changes, core.DecisionResult) {

	if s.OpenLoan != nil {
		if s.OpenLoan.BorrowerID == command.BorrowerID {
			return Changes{}, core.IdempotentDecision()
		}

		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindCopyUnavailable, "copy is currently borrowed"))
	}

	if !s.Copy.IsCirculating() {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindCopyUnavailable, "copy is not in circulation"))
	}

	var heldForBorrower *circulation.Reservation

	for i := range s.ActiveReservations {
		r := &s.ActiveReservations[i]
		if r.Status != circulation.ReservationStatusReady {
			continue
		}

		if r.BorrowerID != command.BorrowerID {
			return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
				circulation.KindCopyUnavailable, "copy is held for another borrower's reservation"))
		}

		heldForBorrower = r
	}

	if s.OpenLoanCount >= rules.MaxBooksAllowed {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindBorrowLimitExceeded, "borrower has reached the open-loan limit"))
	}

	changes := Changes{
		NewLoan: circulation.BuildLoan(
			newLoanID,
			command.CopyID,
			command.BorrowerID,
			command.BorrowerType,
			command.OccurredAt,
			rules.BorrowPeriodDays,
		),
	}

	if heldForBorrower != nil {
		fulfilled := *heldForBorrower
		fulfilled.Status = circulation.ReservationStatusFulfilled
		fulfilled.PickupDeadline = nil
		changes.FulfilledReservation = &fulfilled
	}

	return changes, core.SuccessDecision()
}
