package renewloan

import (
	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/core"
)

// State is the snapshot of all rows the renewal decision depends on.
type State struct {
	Loan                   circulation.Loan
	ActiveReservationCount int
}

// Changes is what a successful renewal persists.
type Changes struct {
	UpdatedLoan circulation.Loan
}

// Decide implements the business logic for renewing a loan. This is a pure
// function with no side effects.
//
// Business Rules:
//
//	GIVEN: An open loan with LoanID
//	WHEN: RenewLoan command is received
//	THEN: The due date is extended by one borrow period and the renewal count incremented
//	ERROR: "LoanNotOpen" if the loan is already returned
//	ERROR: "LoanOverdue" if the loan is past its due date
//	ERROR: "ReservationPending" if anyone is queued for the copy
//	ERROR: "RenewalLimitExceeded" if the borrower's renewal limit is reached
func Decide(s State, command Command, rules circulation.BorrowingRules) (Changes, core.DecisionResult) {
	if !s.Loan.IsOpen() {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindLoanNotOpen, "loan is not open"))
	}

	if s.Loan.IsOverdue(command.OccurredAt) {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindLoanOverdue, "overdue loans cannot be renewed"))
	}

	if s.ActiveReservationCount > 0 {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindReservationPending, "copy has pending reservations"))
	}

	if s.Loan.RenewalCount >= rules.MaxRenewalsAllowed {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindRenewalLimitExceeded, "loan has reached the renewal limit"))
	}

	renewed := s.Loan
	renewed.DueDate = renewed.DueDate.AddDate(0, 0, rules.BorrowPeriodDays)
	renewed.RenewalCount++

	return Changes{UpdatedLoan: renewed}, core.SuccessDecision()
}
