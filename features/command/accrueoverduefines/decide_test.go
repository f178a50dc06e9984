package accrueoverduefines_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/features/command/accrueoverduefines"
)

func Test_AssessLoan_CreatesFineForNewlyOverdueLoan(t *testing.T) {
	// arrange: 14-day loan borrowed 16 days ago, so 2 days overdue
	day := time.Now()
	loan := givenOpenLoan(day.Add(-16*24*time.Hour), 14)
	newFineID := uuid.New()

	// act
	assessment, changed := accrueoverduefines.AssessLoan(loan, nil, givenStudentRules(), day, newFineID)

	// assert
	require.True(t, changed)
	assert.True(t, assessment.FineIsNew)
	assert.Equal(t, newFineID, assessment.Fine.ID)
	assert.Equal(t, 2, assessment.DaysOverdue)
	assert.True(t, assessment.Fine.Amount.Equal(decimal.RequireFromString("1.00")),
		"expected 2 days x 0.50, got %s", assessment.Fine.Amount)
	assert.True(t, assessment.UpdatedLoan.FineAmount.Equal(assessment.Fine.BalanceDue))
}

func Test_AssessLoan_ReassessesFineFromEarlierRun(t *testing.T) {
	// arrange: yesterday's run assessed 1.50, today one more day has passed
	day := time.Now()
	loan := givenOpenLoan(day.Add(-18*24*time.Hour), 14)

	loanID := loan.ID
	existing := circulation.BuildFine(uuid.New(), &loanID, loan.BorrowerID,
		circulation.FineReasonOverdue, decimal.RequireFromString("1.50"))

	// act
	assessment, changed := accrueoverduefines.AssessLoan(loan, &existing, givenStudentRules(), day, uuid.New())

	// assert
	require.True(t, changed)
	assert.False(t, assessment.FineIsNew)
	assert.Equal(t, existing.ID, assessment.Fine.ID)
	assert.True(t, assessment.Fine.Amount.Equal(decimal.RequireFromString("2.00")))
}

func Test_AssessLoan_KeepsPartialPaymentsOnReassessment(t *testing.T) {
	// arrange
	day := time.Now()
	loan := givenOpenLoan(day.Add(-18*24*time.Hour), 14)

	loanID := loan.ID
	existing := circulation.BuildFine(uuid.New(), &loanID, loan.BorrowerID,
		circulation.FineReasonOverdue, decimal.RequireFromString("1.50"))
	existing = existing.ApplyPayment(decimal.RequireFromString("1.00"), "librarian-1", day)

	// act
	assessment, changed := accrueoverduefines.AssessLoan(loan, &existing, givenStudentRules(), day, uuid.New())

	// assert: new total 2.00 minus the 1.00 already paid
	require.True(t, changed)
	assert.True(t, assessment.Fine.BalanceDue.Equal(decimal.RequireFromString("1.00")))
	assert.True(t, assessment.UpdatedLoan.FineAmount.Equal(decimal.RequireFromString("1.00")))
}

func Test_AssessLoan_NoChangeWhenAmountAlreadyCurrent(t *testing.T) {
	// arrange
	day := time.Now()
	loan := givenOpenLoan(day.Add(-16*24*time.Hour), 14)

	loanID := loan.ID
	existing := circulation.BuildFine(uuid.New(), &loanID, loan.BorrowerID,
		circulation.FineReasonOverdue, decimal.RequireFromString("1.00"))

	// act
	_, changed := accrueoverduefines.AssessLoan(loan, &existing, givenStudentRules(), day, uuid.New())

	// assert
	assert.False(t, changed)
}

func Test_AssessLoan_NoChangeWhenLoanNotOverdue(t *testing.T) {
	// arrange
	day := time.Now()
	loan := givenOpenLoan(day.Add(-3*24*time.Hour), 14)

	// act
	_, changed := accrueoverduefines.AssessLoan(loan, nil, givenStudentRules(), day, uuid.New())

	// assert
	assert.False(t, changed)
}

func givenOpenLoan(borrowDate time.Time, periodDays int) circulation.Loan {
	return circulation.BuildLoan(uuid.New(), uuid.New(), "borrower-1", "student", borrowDate, periodDays)
}

func givenStudentRules() circulation.BorrowingRules {
	return circulation.BorrowingRules{
		MaxBooksAllowed:    5,
		BorrowPeriodDays:   14,
		MaxRenewalsAllowed: 2,
		OverdueFinePerDay:  decimal.RequireFromString("0.50"),
		ReservationLimit:   3,
	}
}
