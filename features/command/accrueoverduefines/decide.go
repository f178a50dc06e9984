package accrueoverduefines

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
)

// LoanAssessment is what the accrual decided for a single overdue loan.
type LoanAssessment struct {
	Fine        circulation.Fine
	FineIsNew   bool
	UpdatedLoan circulation.Loan
	DaysOverdue int
}

// AssessLoan computes the accrued fine for one overdue loan as of day. An open
// overdue fine from an earlier run is reassessed to the new total so partial
// payments already made survive; otherwise a fresh fine is created. The second
// return is false when the loan is not overdue or the amount is unchanged, in
// which case nothing needs to be written.
func AssessLoan(
	loan circulation.Loan,
	existingFine *circulation.Fine,
	rules circulation.BorrowingRules,
	day time.Time,
	newFineID uuid.UUID,
) (LoanAssessment, bool) {

	daysOverdue := loan.DaysOverdue(day)
	if daysOverdue == 0 {
		return LoanAssessment{}, false
	}

	amount := rules.OverdueFinePerDay.Mul(decimal.NewFromInt(int64(daysOverdue)))

	assessment := LoanAssessment{
		FineIsNew:   true,
		DaysOverdue: daysOverdue,
	}

	if existingFine != nil {
		if existingFine.Amount.Equal(amount) {
			return LoanAssessment{}, false
		}

		assessment.Fine = existingFine.Reassess(amount)
		assessment.FineIsNew = false
	} else {
		loanID := loan.ID
		assessment.Fine = circulation.BuildFine(
			newFineID, &loanID, loan.BorrowerID, circulation.FineReasonOverdue, amount)
	}

	assessment.UpdatedLoan = loan
	assessment.UpdatedLoan.FineAmount = assessment.Fine.BalanceDue

	return assessment, true
}
