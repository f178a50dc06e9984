package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/postgresengine/internal/adapters"
)

// CopyByID implements circulation.CopyStore.
func (u *unitOfWork) CopyByID(ctx context.Context, id uuid.UUID) (circulation.BookCopy, error) {
	return u.loadCopy(ctx, id, false)
}

// CopyForUpdate implements circulation.CopyStore with a FOR UPDATE row lock,
// serializing concurrent checkout/return/promotion on the same copy.
func (u *unitOfWork) CopyForUpdate(ctx context.Context, id uuid.UUID) (circulation.BookCopy, error) {
	return u.loadCopy(ctx, id, true)
}

func (u *unitOfWork) loadCopy(ctx context.Context, id uuid.UUID, forUpdate bool) (circulation.BookCopy, error) {
	stmt := u.builder().
		From(u.table(tableBookCopies)).
		Select(colID, colTitle, colStatus, colReplacementPrice).
		Where(goqu.C(colID).Eq(id.String()))

	if forUpdate {
		stmt = stmt.ForUpdate(exp.Wait)
	}

	rows, err := u.queryRows(ctx, stmt)
	if err != nil {
		return circulation.BookCopy{}, err
	}
	defer u.closeRows(rows)

	if !rows.Next() {
		return circulation.BookCopy{}, circulation.ErrNotFound
	}

	return u.scanCopy(rows)
}

func (u *unitOfWork) scanCopy(rows adapters.DBRows) (circulation.BookCopy, error) {
	var copyRow struct {
		id               uuid.UUID
		title            string
		status           string
		replacementPrice decimal.NullDecimal
	}

	if scanErr := rows.Scan(&copyRow.id, &copyRow.title, &copyRow.status, &copyRow.replacementPrice); scanErr != nil {
		return circulation.BookCopy{}, u.scanError(scanErr)
	}

	bookCopy := circulation.BookCopy{
		ID:     copyRow.id,
		Title:  copyRow.title,
		Status: circulation.CopyStatus(copyRow.status),
	}

	if copyRow.replacementPrice.Valid {
		price := copyRow.replacementPrice.Decimal
		bookCopy.ReplacementPrice = &price
	}

	return bookCopy, nil
}

// InsertCopy implements circulation.CopyStore.
func (u *unitOfWork) InsertCopy(ctx context.Context, bookCopy circulation.BookCopy) error {
	stmt := u.builder().
		Insert(u.table(tableBookCopies)).
		Cols(colID, colTitle, colStatus, colReplacementPrice).
		Vals(goqu.Vals{
			bookCopy.ID.String(),
			bookCopy.Title,
			string(bookCopy.Status),
			nullableDecimal(bookCopy.ReplacementPrice),
		})

	return u.execInsert(ctx, stmt)
}

// UpdateCopyStatus implements circulation.CopyStore.
func (u *unitOfWork) UpdateCopyStatus(ctx context.Context, id uuid.UUID, status circulation.CopyStatus) error {
	stmt := u.builder().
		Update(u.table(tableBookCopies)).
		Set(goqu.Record{colStatus: string(status)}).
		Where(goqu.C(colID).Eq(id.String()))

	return u.execUpdate(ctx, stmt)
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}

	return *d
}
