package renewloan_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/features/command/renewloan"
)

func Test_Decide_Success_ExtendsDueDateAndCountsRenewal(t *testing.T) {
	// arrange
	now := time.Now()
	loan := givenOpenLoan(now.Add(-3*24*time.Hour), 14)

	state := renewloan.State{Loan: loan}
	command := renewloan.BuildCommand(loan.ID, now)

	// act
	changes, result := renewloan.Decide(state, command, givenStudentRules())

	// assert
	require.NoError(t, result.HasError())
	assert.Equal(t, loan.DueDate.AddDate(0, 0, 14), changes.UpdatedLoan.DueDate)
	assert.Equal(t, 1, changes.UpdatedLoan.RenewalCount)
}

func Test_Decide_Error_WhenLoanReturned(t *testing.T) {
	// arrange
	now := time.Now()
	loan := givenOpenLoan(now.Add(-3*24*time.Hour), 14)
	loan.Status = circulation.LoanStatusReturned

	// act
	_, result := renewloan.Decide(renewloan.State{Loan: loan}, renewloan.BuildCommand(loan.ID, now), givenStudentRules())

	// assert
	assertBusinessRuleError(t, result.HasError(), circulation.KindLoanNotOpen)
}

func Test_Decide_Error_WhenLoanOverdue(t *testing.T) {
	// arrange
	now := time.Now()
	loan := givenOpenLoan(now.Add(-20*24*time.Hour), 14)

	// act
	_, result := renewloan.Decide(renewloan.State{Loan: loan}, renewloan.BuildCommand(loan.ID, now), givenStudentRules())

	// assert
	assertBusinessRuleError(t, result.HasError(), circulation.KindLoanOverdue)
}

func Test_Decide_Error_WhenReservationPending(t *testing.T) {
	// arrange
	now := time.Now()
	loan := givenOpenLoan(now.Add(-3*24*time.Hour), 14)

	state := renewloan.State{Loan: loan, ActiveReservationCount: 1}

	// act
	_, result := renewloan.Decide(state, renewloan.BuildCommand(loan.ID, now), givenStudentRules())

	// assert
	assertBusinessRuleError(t, result.HasError(), circulation.KindReservationPending)
}

func Test_Decide_Error_WhenRenewalLimitReached(t *testing.T) {
	// arrange
	now := time.Now()
	loan := givenOpenLoan(now.Add(-3*24*time.Hour), 14)
	loan.RenewalCount = 2

	// act
	_, result := renewloan.Decide(renewloan.State{Loan: loan}, renewloan.BuildCommand(loan.ID, now), givenStudentRules())

	// assert
	assertBusinessRuleError(t, result.HasError(), circulation.KindRenewalLimitExceeded)
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

func assertBusinessRuleError(t *testing.T, err error, kind circulation.ErrorKind) {
	t.Helper()

	require.Error(t, err)

	bre, ok := circulation.AsBusinessRuleError(err)
	require.True(t, ok, "expected a business rule error, got: %v", err)
	assert.Equal(t, kind, bre.Kind)
}
