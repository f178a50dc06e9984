package config_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/shared/shell/config"
)

func Test_ParseBorrowingRules_ReadsAllBorrowerTypes(t *testing.T) {
	// arrange
	data := `
[borrower.student]
max_books_allowed = 5
borrow_period_days = 14
max_renewals_allowed = 2
overdue_fine_per_day = "0.50"
reservation_limit = 3

[borrower.teacher]
max_books_allowed = 10
borrow_period_days = 28
max_renewals_allowed = 3
overdue_fine_per_day = "0.25"
reservation_limit = 5
`

	// act
	provider, err := config.ParseBorrowingRules(data)

	// assert
	require.NoError(t, err)

	studentRules, err := provider.RulesFor("student")
	require.NoError(t, err)
	assert.Equal(t, 5, studentRules.MaxBooksAllowed)
	assert.Equal(t, 14, studentRules.BorrowPeriodDays)
	assert.Equal(t, 2, studentRules.MaxRenewalsAllowed)
	assert.True(t, studentRules.OverdueFinePerDay.Equal(decimal.RequireFromString("0.50")))
	assert.Equal(t, 3, studentRules.ReservationLimit)

	teacherRules, err := provider.RulesFor("teacher")
	require.NoError(t, err)
	assert.Equal(t, 10, teacherRules.MaxBooksAllowed)
	assert.True(t, teacherRules.OverdueFinePerDay.Equal(decimal.RequireFromString("0.25")))
}

func Test_ParseBorrowingRules_RejectsEmptyFile(t *testing.T) {
	// act
	_, err := config.ParseBorrowingRules("")

	// assert
	assert.ErrorIs(t, err, config.ErrNoBorrowerTypes)
}

func Test_ParseBorrowingRules_RejectsInvalidFineAmount(t *testing.T) {
	// arrange
	data := `
[borrower.student]
max_books_allowed = 5
borrow_period_days = 14
overdue_fine_per_day = "not-a-number"
`

	// act
	_, err := config.ParseBorrowingRules(data)

	// assert
	assert.ErrorContains(t, err, "overdue_fine_per_day")
}

func Test_ParseBorrowingRules_RejectsNonPositiveLimits(t *testing.T) {
	// arrange
	data := `
[borrower.guest]
max_books_allowed = 0
borrow_period_days = 7
overdue_fine_per_day = "1.00"
`

	// act
	_, err := config.ParseBorrowingRules(data)

	// assert
	assert.ErrorContains(t, err, "max_books_allowed")
}
