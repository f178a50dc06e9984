package cancelreservation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/features/command/cancelreservation"
)

func Test_Decide_Success_CancelsWaitingReservation(t *testing.T) {
	// arrange
	now := time.Now()
	reservation := circulation.BuildReservation(uuid.New(), uuid.New(), "borrower-1", now.Add(-time.Hour), 2)

	command := cancelreservation.BuildCommand(reservation.ID, "no longer needed", now)

	// act
	changes, result := cancelreservation.Decide(cancelreservation.State{Reservation: reservation}, command)

	// assert
	require.NoError(t, result.HasError())
	assert.Equal(t, circulation.ReservationStatusCancelled, changes.CancelledReservation.Status)
	assert.Equal(t, "no longer needed", changes.CancelledReservation.CancelReason)
	assert.False(t, changes.WasReady)
	require.Len(t, result.Notifications, 1)
	assert.Equal(t, circulation.NotificationReservationGone, result.Notifications[0].Type)
}

func Test_Decide_Success_CancellingReadyHeadTriggersRepromotion(t *testing.T) {
	// arrange
	now := time.Now()
	reservation := circulation.BuildReservation(uuid.New(), uuid.New(), "borrower-1", now.Add(-time.Hour), 1)
	reservation.Status = circulation.ReservationStatusReady
	deadline := now.Add(24 * time.Hour)
	reservation.PickupDeadline = &deadline

	command := cancelreservation.BuildCommand(reservation.ID, "pickup declined", now)

	// act
	changes, result := cancelreservation.Decide(cancelreservation.State{Reservation: reservation}, command)

	// assert
	require.NoError(t, result.HasError())
	assert.True(t, changes.WasReady)
	assert.Nil(t, changes.CancelledReservation.PickupDeadline)
}

func Test_Decide_Idempotent_WhenAlreadyCancelled(t *testing.T) {
	// arrange
	now := time.Now()
	reservation := circulation.BuildReservation(uuid.New(), uuid.New(), "borrower-1", now.Add(-time.Hour), 1)
	reservation.Status = circulation.ReservationStatusCancelled

	// act
	_, result := cancelreservation.Decide(cancelreservation.State{Reservation: reservation},
		cancelreservation.BuildCommand(reservation.ID, "again", now))

	// assert
	assert.NoError(t, result.HasError())
	assert.False(t, result.HasChangesToPersist())
}

func Test_Decide_Error_WhenReservationFulfilled(t *testing.T) {
	// arrange
	now := time.Now()
	reservation := circulation.BuildReservation(uuid.New(), uuid.New(), "borrower-1", now.Add(-time.Hour), 1)
	reservation.Status = circulation.ReservationStatusFulfilled

	// act
	_, result := cancelreservation.Decide(cancelreservation.State{Reservation: reservation},
		cancelreservation.BuildCommand(reservation.ID, "too late", now))

	// assert
	err := result.HasError()
	require.Error(t, err)

	bre, ok := circulation.AsBusinessRuleError(err)
	require.True(t, ok)
	assert.Equal(t, circulation.KindReservationNotActive, bre.Kind)
}
