package outstandingfines_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/memoryengine"
	"github.com/campuslib/circulation-go/features/query/outstandingfines"
)

func Test_Handle_ReturnsOnlyTheBorrowersOpenFines(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()

	mine := circulation.BuildFine(uuid.New(), nil, "borrower-1",
		circulation.FineReasonOverdue, decimal.RequireFromString("4.00"))
	someoneElses := circulation.BuildFine(uuid.New(), nil, "borrower-2",
		circulation.FineReasonDamage, decimal.RequireFromString("9.00"))

	seedErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		if err := uow.InsertFine(txCtx, mine); err != nil {
			return err
		}
		return uow.InsertFine(txCtx, someoneElses)
	})
	require.NoError(t, seedErr)

	handler := outstandingfines.NewQueryHandler(store)

	// act
	result, err := handler.Handle(ctx, outstandingfines.BuildQuery("borrower-1"))

	// assert
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, mine.ID, result.Fines[0].FineID)
	assert.True(t, result.TotalDue.Equal(decimal.RequireFromString("4.00")))
}
