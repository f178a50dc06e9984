package circulation

import (
	"time"

	"github.com/google/uuid"
)

// PickupWindow is how long a promoted reservation is held before it expires.
const PickupWindow = 48 * time.Hour

// ReservationStatus describes a borrower's place in line for a copy.
type ReservationStatus string

const (
	ReservationStatusWaiting   ReservationStatus = "waiting"
	ReservationStatusReady     ReservationStatus = "ready"
	ReservationStatusFulfilled ReservationStatus = "fulfilled"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// Reservation is a borrower's queued claim on a copy.
//
// Active reservations (waiting or ready) for one copy always carry dense,
// unique queue positions 1..N, with at most one ready record, necessarily at
// position 1. PickupDeadline is set only while the reservation is ready.
type Reservation struct {
	ID             uuid.UUID
	CopyID         uuid.UUID
	BorrowerID     BorrowerIDString
	RequestedAt    time.Time
	QueuePosition  int
	Status         ReservationStatus
	PickupDeadline *time.Time
	CancelReason   string
}

// BuildReservation creates a new waiting reservation at the given queue position.
func BuildReservation(
	id uuid.UUID,
	copyID uuid.UUID,
	borrowerID BorrowerIDString,
	requestedAt time.Time,
	queuePosition int,
) Reservation {

	return Reservation{
		ID:            id,
		CopyID:        copyID,
		BorrowerID:    borrowerID,
		RequestedAt:   ToOccurredAt(requestedAt),
		QueuePosition: queuePosition,
		Status:        ReservationStatusWaiting,
	}
}

// IsActive reports whether the reservation still occupies a queue position.
func (r Reservation) IsActive() bool {
	return r.Status == ReservationStatusWaiting || r.Status == ReservationStatusReady
}

// IsReadyPastDeadline reports whether a ready reservation outlived its pickup window.
func (r Reservation) IsReadyPastDeadline(now time.Time) bool {
	return r.Status == ReservationStatusReady && r.PickupDeadline != nil && now.After(*r.PickupDeadline)
}
