package assessfine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/core"
)

// State carries the rows the assessment reads: the loan the fine is tied to
// (nil for standalone fines) and the open fine with the same loan and reason
// if one already exists.
type State struct {
	Loan         *circulation.Loan
	ExistingFine *circulation.Fine
}

// Changes describes what a successful assessment writes.
type Changes struct {
	Fine        circulation.Fine
	FineIsNew   bool
	UpdatedLoan *circulation.Loan
}

// Decide assesses a fine. An already-open fine for the same loan and reason is
// reassessed to the new amount instead of duplicated, and reassessing to the
// amount already on record is a no-op. The loan-side FineAmount mirror follows
// the fine's balance for loan-linked overdue fines.
func Decide(s State, command Command, newFineID uuid.UUID) (Changes, core.DecisionResult) {
	if !command.Amount.GreaterThan(decimal.Zero) {
		return Changes{}, core.ErrorDecision(
			fmt.Errorf("fine amount must be positive, got %s", command.Amount.StringFixed(2)))
	}

	changes := Changes{FineIsNew: true}

	if s.ExistingFine != nil {
		if s.ExistingFine.Amount.Equal(command.Amount) {
			return Changes{}, core.IdempotentDecision()
		}

		changes.Fine = s.ExistingFine.Reassess(command.Amount)
		changes.FineIsNew = false
	} else {
		changes.Fine = circulation.BuildFine(
			newFineID, command.LoanID, command.BorrowerID, command.Reason, command.Amount)
	}

	if s.Loan != nil && command.Reason == circulation.FineReasonOverdue {
		updated := *s.Loan
		updated.FineAmount = changes.Fine.BalanceDue
		changes.UpdatedLoan = &updated
	}

	return changes, core.SuccessDecision()
}
