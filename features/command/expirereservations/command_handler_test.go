package expirereservations_test

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
	"github.com/campuslib/circulation-go/features/command/expirereservations"
)

func Test_Handle_ExpiredHoldPassesCopyToNextInLine(t *testing.T) {
	// arrange: borrower-1 never picked up, borrower-2 waits behind them
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()
	notifier := &recordingNotifier{}

	bookCopy := circulation.BuildBookCopy(uuid.New(), "Designing Data-Intensive Applications")
	bookCopy.Status = circulation.CopyStatusReserved

	missedDeadline := time.Now().Add(-time.Hour)
	head := circulation.BuildReservation(uuid.New(), bookCopy.ID, "borrower-1", time.Now().Add(-80*time.Hour), 1)
	head.Status = circulation.ReservationStatusReady
	head.PickupDeadline = &missedDeadline

	second := circulation.BuildReservation(uuid.New(), bookCopy.ID, "borrower-2", time.Now().Add(-70*time.Hour), 2)

	seedErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		if err := uow.InsertCopy(txCtx, bookCopy); err != nil {
			return err
		}
		for _, reservation := range []circulation.Reservation{head, second} {
			if err := uow.InsertReservation(txCtx, reservation); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, seedErr)

	handler := expirereservations.NewCommandHandler(store, notifier)

	// act
	_, err := handler.Handle(ctx, expirereservations.BuildCommand(time.Now()))

	// assert
	require.NoError(t, err)

	verifyErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		expired, loadErr := uow.ReservationForUpdate(txCtx, head.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, circulation.ReservationStatusExpired, expired.Status)
		assert.Nil(t, expired.PickupDeadline)

		active, loadErr := uow.ActiveReservationsForCopy(txCtx, bookCopy.ID)
		require.NoError(t, loadErr)
		require.Len(t, active, 1)
		assert.Equal(t, "borrower-2", active[0].BorrowerID)
		assert.Equal(t, 1, active[0].QueuePosition)
		assert.Equal(t, circulation.ReservationStatusReady, active[0].Status)
		return nil
	})
	require.NoError(t, verifyErr)

	requests := notifier.requests()
	require.Len(t, requests, 2)
	assert.Equal(t, circulation.NotificationReadyForPickup, requests[0].Type)
	assert.Equal(t, "borrower-2", requests[0].BorrowerID)
	assert.Equal(t, circulation.NotificationReservationGone, requests[1].Type)
	assert.Equal(t, "borrower-1", requests[1].BorrowerID)
}

func Test_Handle_NothingToExpireIsANoOp(t *testing.T) {
	// arrange: the hold is still within its pickup window
	ctx := context.Background()
	store := memoryengine.NewCirculationStore()
	notifier := &recordingNotifier{}

	bookCopy := circulation.BuildBookCopy(uuid.New(), "Code Complete")
	bookCopy.Status = circulation.CopyStatusReserved

	deadline := time.Now().Add(24 * time.Hour)
	head := circulation.BuildReservation(uuid.New(), bookCopy.ID, "borrower-1", time.Now(), 1)
	head.Status = circulation.ReservationStatusReady
	head.PickupDeadline = &deadline

	seedErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		if err := uow.InsertCopy(txCtx, bookCopy); err != nil {
			return err
		}
		return uow.InsertReservation(txCtx, head)
	})
	require.NoError(t, seedErr)

	handler := expirereservations.NewCommandHandler(store, notifier)

	// act
	_, err := handler.Handle(ctx, expirereservations.BuildCommand(time.Now()))

	// assert
	require.NoError(t, err)
	assert.Empty(t, notifier.requests())

	verifyErr := store.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		untouched, loadErr := uow.ReservationForUpdate(txCtx, head.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, circulation.ReservationStatusReady, untouched.Status)
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
