package reservebookcopy_test

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
	"github.com/campuslib/circulation-go/features/command/reservebookcopy"
)

func Test_Handle_ReservingAvailableCopyPromotesImmediately(t *testing.T) {
	// arrange: nobody holds the copy, so the reservation goes straight to ready
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()
	notifier := &recordingNotifier{}

	bookCopy := circulation.BuildBookCopy(uuid.New(), "Concurrency in Go")

	seedErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		return uow.InsertCopy(txCtx, bookCopy)
	})
	require.NoError(t, seedErr)

	handler := reservebookcopy.NewCommandHandler(store, givenRulesProvider(), notifier)

	// act
	_, err := handler.Handle(ctx,
		reservebookcopy.BuildCommand(bookCopy.ID, "borrower-1", "student", time.Now()))

	// assert
	require.NoError(t, err)

	verifyErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		active, loadErr := uow.ActiveReservationsForCopy(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		require.Len(t, active, 1)
		assert.Equal(t, circulation.ReservationStatusReady, active[0].Status)
		assert.Equal(t, 1, active[0].QueuePosition)
		require.NotNil(t, active[0].PickupDeadline)

		held, loadErr := uow.CopyByID(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, circulation.CopyStatusReserved, held.Status)
		return nil
	})
	require.NoError(t, verifyErr)

	requests := notifier.requests()
	require.Len(t, requests, 1)
	assert.Equal(t, circulation.NotificationReadyForPickup, requests[0].Type)
}

func Test_Handle_ReservingBorrowedCopyJoinsQueueAtTheBack(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()
	notifier := &recordingNotifier{}

	bookCopy := circulation.BuildBookCopy(uuid.New(), "Release It!")
	bookCopy.Status = circulation.CopyStatusBorrowed
	loan := circulation.BuildLoan(uuid.New(), bookCopy.ID, "borrower-1", "student",
		time.Now().Add(-24*time.Hour), 14)
	existing := circulation.BuildReservation(uuid.New(), bookCopy.ID, "borrower-2", time.Now().Add(-time.Hour), 1)

	seedErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		if err := uow.InsertCopy(txCtx, bookCopy); err != nil {
			return err
		}
		if err := uow.InsertLoan(txCtx, loan); err != nil {
			return err
		}
		return uow.InsertReservation(txCtx, existing)
	})
	require.NoError(t, seedErr)

	handler := reservebookcopy.NewCommandHandler(store, givenRulesProvider(), notifier)

	// act
	_, err := handler.Handle(ctx,
		reservebookcopy.BuildCommand(bookCopy.ID, "borrower-3", "student", time.Now()))

	// assert: queued at position 2, no promotion while the copy is out
	require.NoError(t, err)
	assert.Empty(t, notifier.requests())

	verifyErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		active, loadErr := uow.ActiveReservationsForCopy(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		require.Len(t, active, 2)
		assert.True(t, circulation.QueuePositionsAreDense(active))
		assert.Equal(t, "borrower-3", active[1].BorrowerID)
		assert.Equal(t, circulation.ReservationStatusWaiting, active[1].Status)
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
