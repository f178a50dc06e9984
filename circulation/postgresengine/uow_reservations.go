package postgresengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/postgresengine/internal/adapters"
)

func reservationColumns() []any {
	return []any{
		colID, colCopyID, colBorrowerID, colRequestedAt, colQueuePosition,
		colStatus, colPickupDeadline, colCancelReason,
	}
}

func activeReservationStatuses() []string {
	return []string{
		string(circulation.ReservationStatusWaiting),
		string(circulation.ReservationStatusReady),
	}
}

// ReservationForUpdate implements circulation.ReservationStore with a FOR UPDATE row lock.
func (u *unitOfWork) ReservationForUpdate(ctx context.Context, id uuid.UUID) (circulation.Reservation, error) {
	stmt := u.builder().
		From(u.table(tableReservations)).
		Select(reservationColumns()...).
		Where(goqu.C(colID).Eq(id.String())).
		ForUpdate(exp.Wait)

	rows, err := u.queryRows(ctx, stmt)
	if err != nil {
		return circulation.Reservation{}, err
	}
	defer u.closeRows(rows)

	if !rows.Next() {
		return circulation.Reservation{}, circulation.ErrNotFound
	}

	return u.scanReservation(rows)
}

// ActiveReservationsForCopy implements circulation.ReservationStore. The
// waiting/ready rows of a copy are locked together so concurrent promotions
// and compactions serialize per copy.
func (u *unitOfWork) ActiveReservationsForCopy(ctx context.Context, copyID uuid.UUID) ([]circulation.Reservation, error) {
	stmt := u.builder().
		From(u.table(tableReservations)).
		Select(reservationColumns()...).
		Where(goqu.And(
			goqu.C(colCopyID).Eq(copyID.String()),
			goqu.C(colStatus).In(activeReservationStatuses()),
		)).
		Order(goqu.I(colQueuePosition).Asc()).
		ForUpdate(exp.Wait)

	return u.loadReservations(ctx, stmt)
}

// ReadyReservationsPastDeadline implements circulation.ReservationStore; used
// by the nightly expiry batch.
func (u *unitOfWork) ReadyReservationsPastDeadline(ctx context.Context, now time.Time) ([]circulation.Reservation, error) {
	stmt := u.builder().
		From(u.table(tableReservations)).
		Select(reservationColumns()...).
		Where(goqu.And(
			goqu.C(colStatus).Eq(string(circulation.ReservationStatusReady)),
			goqu.C(colPickupDeadline).Lt(circulation.ToOccurredAt(now)),
		)).
		Order(goqu.I(colPickupDeadline).Asc()).
		ForUpdate(exp.Wait)

	return u.loadReservations(ctx, stmt)
}

func (u *unitOfWork) loadReservations(ctx context.Context, stmt *goqu.SelectDataset) ([]circulation.Reservation, error) {
	rows, err := u.queryRows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer u.closeRows(rows)

	reservations := make([]circulation.Reservation, 0)

	for rows.Next() {
		reservation, scanErr := u.scanReservation(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		reservations = append(reservations, reservation)
	}

	return reservations, nil
}

func (u *unitOfWork) scanReservation(rows adapters.DBRows) (circulation.Reservation, error) {
	var reservationRow struct {
		id             uuid.UUID
		copyID         uuid.UUID
		borrowerID     string
		requestedAt    time.Time
		queuePosition  int
		status         string
		pickupDeadline sql.NullTime
		cancelReason   string
	}

	scanErr := rows.Scan(
		&reservationRow.id, &reservationRow.copyID, &reservationRow.borrowerID,
		&reservationRow.requestedAt, &reservationRow.queuePosition,
		&reservationRow.status, &reservationRow.pickupDeadline, &reservationRow.cancelReason,
	)
	if scanErr != nil {
		return circulation.Reservation{}, u.scanError(scanErr)
	}

	reservation := circulation.Reservation{
		ID:            reservationRow.id,
		CopyID:        reservationRow.copyID,
		BorrowerID:    reservationRow.borrowerID,
		RequestedAt:   reservationRow.requestedAt,
		QueuePosition: reservationRow.queuePosition,
		Status:        circulation.ReservationStatus(reservationRow.status),
		CancelReason:  reservationRow.cancelReason,
	}

	if reservationRow.pickupDeadline.Valid {
		deadline := reservationRow.pickupDeadline.Time
		reservation.PickupDeadline = &deadline
	}

	return reservation, nil
}

// ActiveReservationCountForBorrower implements circulation.ReservationStore.
func (u *unitOfWork) ActiveReservationCountForBorrower(ctx context.Context, borrowerID circulation.BorrowerIDString) (int, error) {
	stmt := u.builder().
		From(u.table(tableReservations)).
		Select(goqu.COUNT(colID)).
		Where(goqu.And(
			goqu.C(colBorrowerID).Eq(borrowerID),
			goqu.C(colStatus).In(activeReservationStatuses()),
		))

	rows, err := u.queryRows(ctx, stmt)
	if err != nil {
		return 0, err
	}
	defer u.closeRows(rows)

	count := 0
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			return 0, u.scanError(scanErr)
		}
	}

	return count, nil
}

// InsertReservation implements circulation.ReservationStore.
func (u *unitOfWork) InsertReservation(ctx context.Context, reservation circulation.Reservation) error {
	stmt := u.builder().
		Insert(u.table(tableReservations)).
		Cols(colID, colCopyID, colBorrowerID, colRequestedAt, colQueuePosition,
			colStatus, colPickupDeadline, colCancelReason).
		Vals(goqu.Vals{
			reservation.ID.String(),
			reservation.CopyID.String(),
			reservation.BorrowerID,
			reservation.RequestedAt,
			reservation.QueuePosition,
			string(reservation.Status),
			nullableTime(reservation.PickupDeadline),
			reservation.CancelReason,
		})

	return u.execInsert(ctx, stmt)
}

// UpdateReservation implements circulation.ReservationStore.
func (u *unitOfWork) UpdateReservation(ctx context.Context, reservation circulation.Reservation) error {
	stmt := u.builder().
		Update(u.table(tableReservations)).
		Set(goqu.Record{
			colQueuePosition:  reservation.QueuePosition,
			colStatus:         string(reservation.Status),
			colPickupDeadline: nullableTime(reservation.PickupDeadline),
			colCancelReason:   reservation.CancelReason,
		}).
		Where(goqu.C(colID).Eq(reservation.ID.String()))

	return u.execUpdate(ctx, stmt)
}
