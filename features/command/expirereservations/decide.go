package expirereservations

import (
	"time"

	"github.com/campuslib/circulation-go/circulation"
)

// ExpireReservation marks a ready reservation as expired, dropping its pickup
// deadline. The second return is false when the reservation no longer
// qualifies, which happens when it was fulfilled or cancelled between the
// batch query and the row lock.
func ExpireReservation(reservation circulation.Reservation, now time.Time) (circulation.Reservation, bool) {
	if !reservation.IsReadyPastDeadline(now) {
		return circulation.Reservation{}, false
	}

	reservation.Status = circulation.ReservationStatusExpired
	reservation.PickupDeadline = nil
	reservation.CancelReason = "pickup window elapsed"

	return reservation, true
}
