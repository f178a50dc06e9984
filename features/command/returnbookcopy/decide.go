package returnbookcopy

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/core"
)

// State is the snapshot of all rows the return decision depends on.
type State struct {
	Loan circulation.Loan

	// OpenOverdueFine is the open overdue fine already tied to the loan, nil if none.
	OpenOverdueFine *circulation.Fine
}

// Changes is what a successful return persists. Queue promotion happens in the
// handler afterwards, inside the same transaction.
type Changes struct {
	UpdatedLoan circulation.Loan

	// Fine is the overdue fine to write, nil when the loan came back on time
	// and no fine was open. FineIsNew tells insert from update apart.
	Fine      *circulation.Fine
	FineIsNew bool
}

// Decide implements the business logic for returning a copy. This is a pure
// function with no side effects.
//
// Business Rules:
//
//	GIVEN: A loan with LoanID
//	WHEN: ReturnBookCopy command is received
//	THEN: The loan closes with today's return date; overdue days accrue an
//	      overdue fine via the idempotent assess contract (one open fine per
//	      loan and reason, re-runs update the amount instead of duplicating)
//	ERROR: "LoanNotOpen" if the loan is not open
//	IDEMPOTENCY: If the loan is already returned, no change is made
func Decide(
	s State,
	command Command,
	rules circulation.BorrowingRules,
	newFineID uuid.UUID,
) (Changes, core.DecisionResult) {

	if s.Loan.Status == circulation.LoanStatusReturned {
		return Changes{}, core.IdempotentDecision()
	}

	if !s.Loan.IsOpen() {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindLoanNotOpen, "loan is not open"))
	}

	returned := s.Loan
	returnDate := circulation.StartOfDay(command.OccurredAt)
	returned.Status = circulation.LoanStatusReturned
	returned.ReturnDate = &returnDate

	changes := Changes{UpdatedLoan: returned}

	daysOverdue := s.Loan.DaysOverdue(command.OccurredAt)
	if daysOverdue > 0 {
		amount := rules.OverdueFinePerDay.Mul(decimal.NewFromInt(int64(daysOverdue)))

		var fine circulation.Fine
		if s.OpenOverdueFine != nil {
			fine = s.OpenOverdueFine.Reassess(amount)
		} else {
			loanID := s.Loan.ID
			fine = circulation.BuildFine(newFineID, &loanID, s.Loan.BorrowerID, circulation.FineReasonOverdue, amount)
			changes.FineIsNew = true
		}

		changes.Fine = &fine
		changes.UpdatedLoan.FineAmount = fine.BalanceDue
	}

	return changes, core.SuccessDecision()
}
