package checkoutbookcopy_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/features/command/checkoutbookcopy"
)

func Test_Decide_Success_WhenCopyAvailable(t *testing.T) {
	// arrange
	copyID := uuid.New()
	now := time.Now()

	state := checkoutbookcopy.State{
		Copy: givenAvailableCopy(copyID),
	}

	command := checkoutbookcopy.BuildCommand(copyID, "borrower-1", "student", now)
	newLoanID := uuid.New()

	// act
	changes, result := checkoutbookcopy.Decide(state, command, givenStudentRules(), newLoanID)

	// assert
	require.NoError(t, result.HasError())
	assert.True(t, result.HasChangesToPersist())
	assert.Equal(t, newLoanID, changes.NewLoan.ID)
	assert.Equal(t, copyID, changes.NewLoan.CopyID)
	assert.Equal(t, "borrower-1", changes.NewLoan.BorrowerID)
	assert.Equal(t, circulation.LoanStatusBorrowed, changes.NewLoan.Status)
	assert.Equal(t, circulation.StartOfDay(now).AddDate(0, 0, 14), changes.NewLoan.DueDate)
	assert.Nil(t, changes.FulfilledReservation)
}

func Test_Decide_Success_WhenCopyHeldReadyForSameBorrower(t *testing.T) {
	// arrange
	copyID := uuid.New()
	now := time.Now()

	held := circulation.BuildReservation(uuid.New(), copyID, "borrower-1", now.Add(-2*time.Hour), 1)
	held.Status = circulation.ReservationStatusReady
	deadline := now.Add(24 * time.Hour)
	held.PickupDeadline = &deadline

	state := checkoutbookcopy.State{
		Copy:               givenReservedCopy(copyID),
		ActiveReservations: []circulation.Reservation{held},
	}

	command := checkoutbookcopy.BuildCommand(copyID, "borrower-1", "student", now)

	// act
	changes, result := checkoutbookcopy.Decide(state, command, givenStudentRules(), uuid.New())

	// assert
	require.NoError(t, result.HasError())
	require.NotNil(t, changes.FulfilledReservation)
	assert.Equal(t, circulation.ReservationStatusFulfilled, changes.FulfilledReservation.Status)
	assert.Nil(t, changes.FulfilledReservation.PickupDeadline)
}

func Test_Decide_Idempotent_WhenBorrowerAlreadyHoldsTheCopy(t *testing.T) {
	// arrange
	copyID := uuid.New()
	now := time.Now()

	openLoan := circulation.BuildLoan(uuid.New(), copyID, "borrower-1", "student", now.Add(-48*time.Hour), 14)

	state := checkoutbookcopy.State{
		Copy:     givenBorrowedCopy(copyID),
		OpenLoan: &openLoan,
	}

	command := checkoutbookcopy.BuildCommand(copyID, "borrower-1", "student", now)

	// act
	_, result := checkoutbookcopy.Decide(state, command, givenStudentRules(), uuid.New())

	// assert
	assert.NoError(t, result.HasError())
	assert.False(t, result.HasChangesToPersist())
}

func Test_Decide_Error_WhenCopyBorrowedByAnotherBorrower(t *testing.T) {
	// arrange
	copyID := uuid.New()
	now := time.Now()

	openLoan := circulation.BuildLoan(uuid.New(), copyID, "borrower-2", "student", now.Add(-48*time.Hour), 14)

	state := checkoutbookcopy.State{
		Copy:     givenBorrowedCopy(copyID),
		OpenLoan: &openLoan,
	}

	command := checkoutbookcopy.BuildCommand(copyID, "borrower-1", "student", now)

	// act
	_, result := checkoutbookcopy.Decide(state, command, givenStudentRules(), uuid.New())

	// assert
	assertBusinessRuleError(t, result.HasError(), circulation.KindCopyUnavailable)
}

func Test_Decide_Error_WhenCopyHeldReadyForAnotherBorrower(t *testing.T) {
	// arrange
	copyID := uuid.New()
	now := time.Now()

	held := circulation.BuildReservation(uuid.New(), copyID, "borrower-2", now.Add(-2*time.Hour), 1)
	held.Status = circulation.ReservationStatusReady

	state := checkoutbookcopy.State{
		Copy:               givenReservedCopy(copyID),
		ActiveReservations: []circulation.Reservation{held},
	}

	command := checkoutbookcopy.BuildCommand(copyID, "borrower-1", "student", now)

	// act
	_, result := checkoutbookcopy.Decide(state, command, givenStudentRules(), uuid.New())

	// assert
	assertBusinessRuleError(t, result.HasError(), circulation.KindCopyUnavailable)
}

func Test_Decide_Error_WhenCopyNotCirculating(t *testing.T) {
	// arrange
	copyID := uuid.New()
	bookCopy := givenAvailableCopy(copyID)
	bookCopy.Status = circulation.CopyStatusMaintenance

	state := checkoutbookcopy.State{Copy: bookCopy}
	command := checkoutbookcopy.BuildCommand(copyID, "borrower-1", "student", time.Now())

	// act
	_, result := checkoutbookcopy.Decide(state, command, givenStudentRules(), uuid.New())

	// assert
	assertBusinessRuleError(t, result.HasError(), circulation.KindCopyUnavailable)
}

func Test_Decide_Error_WhenBorrowLimitReached(t *testing.T) {
	// arrange
	copyID := uuid.New()

	state := checkoutbookcopy.State{
		Copy:          givenAvailableCopy(copyID),
		OpenLoanCount: 5,
	}

	command := checkoutbookcopy.BuildCommand(copyID, "borrower-1", "student", time.Now())

	// act
	_, result := checkoutbookcopy.Decide(state, command, givenStudentRules(), uuid.New())

	// assert
	assertBusinessRuleError(t, result.HasError(), circulation.KindBorrowLimitExceeded)
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

func givenAvailableCopy(copyID uuid.UUID) circulation.BookCopy {
	return circulation.BuildBookCopy(copyID, "The Go Programming Language")
}

func givenBorrowedCopy(copyID uuid.UUID) circulation.BookCopy {
	bookCopy := givenAvailableCopy(copyID)
	bookCopy.Status = circulation.CopyStatusBorrowed

	return bookCopy
}

func givenReservedCopy(copyID uuid.UUID) circulation.BookCopy {
	bookCopy := givenAvailableCopy(copyID)
	bookCopy.Status = circulation.CopyStatusReserved

	return bookCopy
}

func assertBusinessRuleError(t *testing.T, err error, kind circulation.ErrorKind) {
	t.Helper()

	require.Error(t, err)

	bre, ok := circulation.AsBusinessRuleError(err)
	require.True(t, ok, "expected a business rule error, got: %v", err)
	assert.Equal(t, kind, bre.Kind)
}
