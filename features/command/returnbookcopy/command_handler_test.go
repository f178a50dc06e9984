package returnbookcopy_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/memoryengine"
	"github.com/campuslib/circulation-go/features/command/returnbookcopy"
	"github.com/campuslib/circulation-go/shared/shell"
)

func Test_Handle_ReturnPromotesHeadReservationAndCompactsQueue(t *testing.T) {
	// arrange: a borrowed copy with three borrowers waiting in line
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()
	notifier := &recordingNotifier{}

	bookCopy := circulation.BuildBookCopy(uuid.New(), "The Go Programming Language")
	bookCopy.Status = circulation.CopyStatusBorrowed
	loan := circulation.BuildLoan(uuid.New(), bookCopy.ID, "borrower-1", "student",
		time.Now().Add(-3*24*time.Hour), 14)

	reservations := []circulation.Reservation{
		circulation.BuildReservation(uuid.New(), bookCopy.ID, "borrower-2", time.Now().Add(-2*time.Hour), 1),
		circulation.BuildReservation(uuid.New(), bookCopy.ID, "borrower-3", time.Now().Add(-1*time.Hour), 2),
		circulation.BuildReservation(uuid.New(), bookCopy.ID, "borrower-4", time.Now(), 3),
	}

	seedErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		if err := uow.InsertCopy(txCtx, bookCopy); err != nil {
			return err
		}
		if err := uow.InsertLoan(txCtx, loan); err != nil {
			return err
		}
		for _, reservation := range reservations {
			if err := uow.InsertReservation(txCtx, reservation); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, seedErr)

	handler := returnbookcopy.NewCommandHandler(store, givenRulesProvider(), notifier)

	// act
	result, err := handler.Handle(ctx, returnbookcopy.BuildCommand(loan.ID, time.Now()))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)

	verifyErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		returned, loadErr := uow.LoanByID(txCtx, loan.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, circulation.LoanStatusReturned, returned.Status)

		promoted, loadErr := uow.CopyByID(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, circulation.CopyStatusReserved, promoted.Status)

		active, loadErr := uow.ActiveReservationsForCopy(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		require.Len(t, active, 3)
		assert.True(t, circulation.QueuePositionsAreDense(active))
		assert.Equal(t, circulation.ReservationStatusReady, active[0].Status)
		assert.Equal(t, "borrower-2", active[0].BorrowerID)
		require.NotNil(t, active[0].PickupDeadline)

		return nil
	})
	require.NoError(t, verifyErr)

	requests := notifier.requests()
	require.Len(t, requests, 1)
	assert.Equal(t, circulation.NotificationReadyForPickup, requests[0].Type)
	assert.Equal(t, "borrower-2", requests[0].BorrowerID)
}

func Test_Handle_ReturnWithEmptyQueueFreesTheCopy(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()

	bookCopy := circulation.BuildBookCopy(uuid.New(), "Clean Architecture")
	bookCopy.Status = circulation.CopyStatusBorrowed
	loan := circulation.BuildLoan(uuid.New(), bookCopy.ID, "borrower-1", "student",
		time.Now().Add(-3*24*time.Hour), 14)

	seedErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		if err := uow.InsertCopy(txCtx, bookCopy); err != nil {
			return err
		}
		return uow.InsertLoan(txCtx, loan)
	})
	require.NoError(t, seedErr)

	handler := returnbookcopy.NewCommandHandler(store, givenRulesProvider(), shell.NopNotifier{})

	// act
	_, err := handler.Handle(ctx, returnbookcopy.BuildCommand(loan.ID, time.Now()))

	// assert
	require.NoError(t, err)

	verifyErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		freed, loadErr := uow.CopyByID(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, circulation.CopyStatusAvailable, freed.Status)
		return nil
	})
	require.NoError(t, verifyErr)
}

func Test_Handle_LateReturnWritesFineAndLoanMirror(t *testing.T) {
	// arrange: 6 days late at 0.50 per day
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()

	bookCopy := circulation.BuildBookCopy(uuid.New(), "Domain-Driven Design")
	bookCopy.Status = circulation.CopyStatusBorrowed
	loan := circulation.BuildLoan(uuid.New(), bookCopy.ID, "borrower-1", "student",
		time.Now().Add(-20*24*time.Hour), 14)

	seedErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		if err := uow.InsertCopy(txCtx, bookCopy); err != nil {
			return err
		}
		return uow.InsertLoan(txCtx, loan)
	})
	require.NoError(t, seedErr)

	handler := returnbookcopy.NewCommandHandler(store, givenRulesProvider(), shell.NopNotifier{})

	// act
	_, err := handler.Handle(ctx, returnbookcopy.BuildCommand(loan.ID, time.Now()))

	// assert
	require.NoError(t, err)

	verifyErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		fine, loadErr := uow.OpenFineForLoan(txCtx, loan.ID, circulation.FineReasonOverdue)
		require.NoError(t, loadErr)
		require.NotNil(t, fine)
		assert.True(t, fine.Amount.Equal(decimal.RequireFromString("3.00")))

		returned, loadErr := uow.LoanByID(txCtx, loan.ID)
		require.NoError(t, loadErr)
		assert.True(t, returned.FineAmount.Equal(fine.BalanceDue))
		return nil
	})
	require.NoError(t, verifyErr)
}

// recordingNotifier captures dispatched requests synchronously for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	captured []circulation.NotificationRequest
}

func (n *recordingNotifier) Dispatch(requests ...circulation.NotificationRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.captured = append(n.captured, requests...)
}

func (n *recordingNotifier) requests() []circulation.NotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]circulation.NotificationRequest(nil), n.captured...)
}

func givenRulesProvider() circulation.RulesProvider {
	return circulation.BuildStaticRulesProvider(map[circulation.BorrowerTypeString]circulation.BorrowingRules{
		"student": givenStudentRules(),
	})
}
