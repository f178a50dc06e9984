package checkoutbookcopy_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/memoryengine"
	"github.com/campuslib/circulation-go/features/command/checkoutbookcopy"
)

func Test_Handle_SecondBorrowerLosesTheRaceForTheLastCopy(t *testing.T) {
	// arrange: two borrowers go for the same available copy at once
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()
	bookCopy := givenAvailableCopyInStore(t, store)
	handler := checkoutbookcopy.NewCommandHandler(store, givenRulesProvider())

	results := make([]error, 2)
	var wg sync.WaitGroup

	// act
	for i, borrowerID := range []circulation.BorrowerIDString{"borrower-1", "borrower-2"} {
		wg.Add(1)
		go func(slot int, borrower circulation.BorrowerIDString) {
			defer wg.Done()
			_, err := handler.Handle(ctx,
				checkoutbookcopy.BuildCommand(bookCopy.ID, borrower, "student", time.Now()))
			results[slot] = err
		}(i, borrowerID)
	}
	wg.Wait()

	// assert: exactly one checkout succeeded, the other was rejected
	var successes, rejections int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		bre, ok := circulation.AsBusinessRuleError(err)
		require.True(t, ok, "unexpected error: %v", err)
		assert.Equal(t, circulation.KindCopyUnavailable, bre.Kind)
		rejections++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)

	verifyErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		borrowed, loadErr := uow.CopyByID(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, circulation.CopyStatusBorrowed, borrowed.Status)

		openLoan, loadErr := uow.OpenLoanForCopy(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		require.NotNil(t, openLoan)
		return nil
	})
	require.NoError(t, verifyErr)
}

func Test_Handle_RepeatedCheckoutBySameBorrowerIsIdempotent(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()
	bookCopy := givenAvailableCopyInStore(t, store)
	handler := checkoutbookcopy.NewCommandHandler(store, givenRulesProvider())

	command := checkoutbookcopy.BuildCommand(bookCopy.ID, "borrower-1", "student", time.Now())

	_, err := handler.Handle(ctx, command)
	require.NoError(t, err)

	// act
	result, err := handler.Handle(ctx, command)

	// assert
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
}

func Test_Handle_CheckoutFulfillsOwnReadyReservation(t *testing.T) {
	// arrange: the copy is held ready for borrower-1 who now picks it up
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()

	bookCopy := circulation.BuildBookCopy(uuid.New(), "Structure and Interpretation")
	bookCopy.Status = circulation.CopyStatusReserved
	deadline := time.Now().Add(24 * time.Hour)
	ready := circulation.BuildReservation(uuid.New(), bookCopy.ID, "borrower-1", time.Now().Add(-time.Hour), 1)
	ready.Status = circulation.ReservationStatusReady
	ready.PickupDeadline = &deadline

	seedErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		if err := uow.InsertCopy(txCtx, bookCopy); err != nil {
			return err
		}
		return uow.InsertReservation(txCtx, ready)
	})
	require.NoError(t, seedErr)

	handler := checkoutbookcopy.NewCommandHandler(store, givenRulesProvider())

	// act
	_, err := handler.Handle(ctx,
		checkoutbookcopy.BuildCommand(bookCopy.ID, "borrower-1", "student", time.Now()))

	// assert: the reservation is fulfilled and leaves the queue
	require.NoError(t, err)

	verifyErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		fulfilled, loadErr := uow.ReservationForUpdate(txCtx, ready.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, circulation.ReservationStatusFulfilled, fulfilled.Status)
		assert.Nil(t, fulfilled.PickupDeadline)

		active, loadErr := uow.ActiveReservationsForCopy(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		assert.Empty(t, active)

		borrowed, loadErr := uow.CopyByID(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, circulation.CopyStatusBorrowed, borrowed.Status)
		return nil
	})
	require.NoError(t, verifyErr)
}

func givenAvailableCopyInStore(t *testing.T, store *memoryengine.CirculationStore) circulation.BookCopy {
	t.Helper()

	bookCopy := circulation.BuildBookCopy(uuid.New(), "The Mythical Man-Month")
	seedErr := store.WithinTx(context.Background(), func(txCtx context.Context, uow circulation.UnitOfWork) error {
		return uow.InsertCopy(txCtx, bookCopy)
	})
	require.NoError(t, seedErr)

	return bookCopy
}

func givenRulesProvider() circulation.RulesProvider {
	return circulation.BuildStaticRulesProvider(map[circulation.BorrowerTypeString]circulation.BorrowingRules{
		"student": givenStudentRules(),
	})
}
