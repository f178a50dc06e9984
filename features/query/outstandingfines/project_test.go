package outstandingfines_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/features/query/outstandingfines"
)

func Test_ProjectOutstandingFines_SumsOpenBalances(t *testing.T) {
	// arrange: one untouched fine and one partially paid fine
	first := givenFine("5.00")
	second := givenFine("3.00")
	second = second.ApplyPayment(decimal.RequireFromString("1.00"), "librarian-1", time.Now())

	query := outstandingfines.BuildQuery("borrower-1")

	// act
	result := outstandingfines.ProjectOutstandingFines([]circulation.Fine{first, second}, query)

	// assert
	assert.Equal(t, "borrower-1", result.BorrowerID)
	require.Equal(t, 2, result.Count)
	assert.True(t, result.TotalDue.Equal(decimal.RequireFromString("7.00")))
	assert.Equal(t, circulation.PaymentStatusPartialPaid, result.Fines[1].Status)
	assert.True(t, result.Fines[1].BalanceDue.Equal(decimal.RequireFromString("2.00")))
}

func Test_ProjectOutstandingFines_ExcludesSettledFines(t *testing.T) {
	// arrange
	open := givenFine("5.00")
	settled := givenFine("2.00")
	settled = settled.ApplyPayment(decimal.RequireFromString("2.00"), "librarian-1", time.Now())

	query := outstandingfines.BuildQuery("borrower-1")

	// act
	result := outstandingfines.ProjectOutstandingFines([]circulation.Fine{open, settled}, query)

	// assert
	require.Equal(t, 1, result.Count)
	assert.Equal(t, open.ID, result.Fines[0].FineID)
	assert.True(t, result.TotalDue.Equal(decimal.RequireFromString("5.00")))
}

func Test_ProjectOutstandingFines_EmptyForBorrowerWithoutFines(t *testing.T) {
	// act
	result := outstandingfines.ProjectOutstandingFines(nil, outstandingfines.BuildQuery("borrower-1"))

	// assert
	assert.Zero(t, result.Count)
	assert.Empty(t, result.Fines)
	assert.True(t, result.TotalDue.IsZero())
}

func givenFine(amount string) circulation.Fine {
	return circulation.BuildFine(uuid.New(), nil, "borrower-1",
		circulation.FineReasonOverdue, decimal.RequireFromString(amount))
}
