package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/campuslib/circulation-go/circulation"
)

// PromoteCopy hands a freed copy to the head of its reservation queue, or
// marks it available when the queue is empty. It must run inside the same
// transaction that freed the copy.
//
// When a waiting reservation is promoted it becomes ready with a pickup
// deadline, the copy is kept in reserved status, and a ready-for-pickup
// notification request is returned for dispatch after commit. Otherwise the
// copy becomes available and nil is returned.
func PromoteCopy(
	ctx context.Context,
	uow circulation.UnitOfWork,
	bookCopy circulation.BookCopy,
	now time.Time,
) (*circulation.NotificationRequest, error) {

	reservations, err := uow.ActiveReservationsForCopy(ctx, bookCopy.ID)
	if err != nil {
		return nil, err
	}

	head := circulation.NextInLine(reservations)
	if head == nil {
		return nil, uow.UpdateCopyStatus(ctx, bookCopy.ID, circulation.CopyStatusAvailable)
	}

	if head.Status != circulation.ReservationStatusWaiting {
		// A ready reservation already holds the copy.
		return nil, uow.UpdateCopyStatus(ctx, bookCopy.ID, circulation.CopyStatusReserved)
	}

	deadline := now.Add(circulation.PickupWindow)
	head.Status = circulation.ReservationStatusReady
	head.PickupDeadline = &deadline

	if err = uow.UpdateReservation(ctx, *head); err != nil {
		return nil, err
	}

	if err = uow.UpdateCopyStatus(ctx, bookCopy.ID, circulation.CopyStatusReserved); err != nil {
		return nil, err
	}

	reservationID := head.ID
	notification := &circulation.NotificationRequest{
		BorrowerID: head.BorrowerID,
		Type:       circulation.NotificationReadyForPickup,
		Title:      "Reserved book ready for pickup",
		Message: fmt.Sprintf("%q is ready for pickup until %s.",
			bookCopy.Title, deadline.Format("Mon, 02 Jan 2006 15:04")),
		RelatedReservationID: &reservationID,
		Priority:             circulation.PriorityHigh,
	}

	return notification, nil
}

// RemoveFromQueue transitions an active reservation out of the queue and
// compacts the positions behind it. The leaving reservation's row is updated
// first so the renumbering never collides with its old position.
func RemoveFromQueue(
	ctx context.Context,
	uow circulation.UnitOfWork,
	leaving circulation.Reservation,
	all []circulation.Reservation,
) error {

	if err := uow.UpdateReservation(ctx, leaving); err != nil {
		return err
	}

	// Ascending position order keeps the dense-position unique index satisfied
	// at every intermediate step.
	for _, moved := range circulation.CompactQueueAfterRemoval(all, leaving.QueuePosition) {
		if err := uow.UpdateReservation(ctx, moved); err != nil {
			return err
		}
	}

	return nil
}
