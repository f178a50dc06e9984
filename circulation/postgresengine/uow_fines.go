package postgresengine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/postgresengine/internal/adapters"
)

func fineColumns() []any {
	return []any{
		colID, colLoanID, colBorrowerID, colAmount, colAmountPaid,
		colBalanceDue, colReason, colPaymentStatus, colCollectedBy, colPaymentDate,
	}
}

func openPaymentStatuses() []string {
	return []string{
		string(circulation.PaymentStatusUnpaid),
		string(circulation.PaymentStatusPartialPaid),
	}
}

// FineByID implements circulation.FineStore.
func (u *unitOfWork) FineByID(ctx context.Context, id uuid.UUID) (circulation.Fine, error) {
	return u.loadFine(ctx, goqu.C(colID).Eq(id.String()), false)
}

// FineForUpdate implements circulation.FineStore, locking the fine row so a
// payment is always applied against the current balance.
func (u *unitOfWork) FineForUpdate(ctx context.Context, id uuid.UUID) (circulation.Fine, error) {
	return u.loadFine(ctx, goqu.C(colID).Eq(id.String()), true)
}

// OpenFineForLoan implements circulation.FineStore; it backs the idempotent
// overdue assess by matching loan + reason + open payment status.
func (u *unitOfWork) OpenFineForLoan(ctx context.Context, loanID uuid.UUID, reason circulation.FineReason) (*circulation.Fine, error) {
	where := goqu.And(
		goqu.C(colLoanID).Eq(loanID.String()),
		goqu.C(colReason).Eq(string(reason)),
		goqu.C(colPaymentStatus).In(openPaymentStatuses()),
	)

	fine, err := u.loadFine(ctx, where, true)
	if err != nil {
		if errors.Is(err, circulation.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &fine, nil
}

func (u *unitOfWork) loadFine(ctx context.Context, where exp.Expression, forUpdate bool) (circulation.Fine, error) {
	stmt := u.builder().
		From(u.table(tableFines)).
		Select(fineColumns()...).
		Where(where)

	if forUpdate {
		stmt = stmt.ForUpdate(exp.Wait)
	}

	rows, err := u.queryRows(ctx, stmt)
	if err != nil {
		return circulation.Fine{}, err
	}
	defer u.closeRows(rows)

	if !rows.Next() {
		return circulation.Fine{}, circulation.ErrNotFound
	}

	return u.scanFine(rows)
}

// OpenFinesForBorrower implements circulation.FineStore.
func (u *unitOfWork) OpenFinesForBorrower(ctx context.Context, borrowerID circulation.BorrowerIDString) ([]circulation.Fine, error) {
	stmt := u.builder().
		From(u.table(tableFines)).
		Select(fineColumns()...).
		Where(goqu.And(
			goqu.C(colBorrowerID).Eq(borrowerID),
			goqu.C(colPaymentStatus).In(openPaymentStatuses()),
		)).
		Order(goqu.I(colID).Asc())

	rows, err := u.queryRows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer u.closeRows(rows)

	fines := make([]circulation.Fine, 0)

	for rows.Next() {
		fine, scanErr := u.scanFine(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		fines = append(fines, fine)
	}

	return fines, nil
}

func (u *unitOfWork) scanFine(rows adapters.DBRows) (circulation.Fine, error) {
	var fineRow struct {
		id            uuid.UUID
		loanID        sql.NullString
		borrowerID    string
		amount        decimal.Decimal
		amountPaid    decimal.Decimal
		balanceDue    decimal.Decimal
		reason        string
		paymentStatus string
		collectedBy   string
		paymentDate   sql.NullTime
	}

	scanErr := rows.Scan(
		&fineRow.id, &fineRow.loanID, &fineRow.borrowerID, &fineRow.amount,
		&fineRow.amountPaid, &fineRow.balanceDue, &fineRow.reason,
		&fineRow.paymentStatus, &fineRow.collectedBy, &fineRow.paymentDate,
	)
	if scanErr != nil {
		return circulation.Fine{}, u.scanError(scanErr)
	}

	fine := circulation.Fine{
		ID:            fineRow.id,
		BorrowerID:    fineRow.borrowerID,
		Amount:        fineRow.amount,
		AmountPaid:    fineRow.amountPaid,
		BalanceDue:    fineRow.balanceDue,
		Reason:        circulation.FineReason(fineRow.reason),
		PaymentStatus: circulation.PaymentStatus(fineRow.paymentStatus),
		CollectedBy:   fineRow.collectedBy,
	}

	if fineRow.loanID.Valid {
		loanID, parseErr := uuid.Parse(fineRow.loanID.String)
		if parseErr != nil {
			return circulation.Fine{}, u.scanError(parseErr)
		}

		fine.LoanID = &loanID
	}

	if fineRow.paymentDate.Valid {
		paymentDate := fineRow.paymentDate.Time
		fine.PaymentDate = &paymentDate
	}

	return fine, nil
}

// InsertFine implements circulation.FineStore.
func (u *unitOfWork) InsertFine(ctx context.Context, fine circulation.Fine) error {
	stmt := u.builder().
		Insert(u.table(tableFines)).
		Cols(colID, colLoanID, colBorrowerID, colAmount, colAmountPaid,
			colBalanceDue, colReason, colPaymentStatus, colCollectedBy, colPaymentDate).
		Vals(goqu.Vals{
			fine.ID.String(),
			nullableUUID(fine.LoanID),
			fine.BorrowerID,
			fine.Amount,
			fine.AmountPaid,
			fine.BalanceDue,
			string(fine.Reason),
			string(fine.PaymentStatus),
			fine.CollectedBy,
			nullableTime(fine.PaymentDate),
		})

	return u.execInsert(ctx, stmt)
}

// UpdateFine implements circulation.FineStore.
func (u *unitOfWork) UpdateFine(ctx context.Context, fine circulation.Fine) error {
	stmt := u.builder().
		Update(u.table(tableFines)).
		Set(goqu.Record{
			colAmount:        fine.Amount,
			colAmountPaid:    fine.AmountPaid,
			colBalanceDue:    fine.BalanceDue,
			colPaymentStatus: string(fine.PaymentStatus),
			colCollectedBy:   fine.CollectedBy,
			colPaymentDate:   nullableTime(fine.PaymentDate),
		}).
		Where(goqu.C(colID).Eq(fine.ID.String()))

	return u.execUpdate(ctx, stmt)
}

// InsertReceipt implements circulation.AuditStore. Line items are serialized
// once at commit time and never rewritten.
func (u *unitOfWork) InsertReceipt(ctx context.Context, receipt circulation.Receipt) error {
	lineItemsJSON, marshalErr := jsoniter.ConfigFastest.Marshal(receipt.Lines)
	if marshalErr != nil {
		return errors.Join(circulation.ErrStorageFailure, marshalErr)
	}

	stmt := u.builder().
		Insert(u.table(tableReceipts)).
		Cols(colID, "receipt_number", colBorrowerID, colCollectedBy,
			"total_paid", "cash_received", "change_given", "line_items", "issued_at").
		Vals(goqu.Vals{
			receipt.ID.String(),
			receipt.ReceiptNumber,
			receipt.BorrowerID,
			receipt.CollectedBy,
			receipt.TotalPaid,
			receipt.CashReceived,
			receipt.ChangeGiven,
			string(lineItemsJSON),
			receipt.IssuedAt,
		})

	return u.execInsert(ctx, stmt)
}

// InsertLetter implements circulation.AuditStore.
func (u *unitOfWork) InsertLetter(ctx context.Context, letter circulation.Letter) error {
	lineItemsJSON, marshalErr := jsoniter.ConfigFastest.Marshal(letter.Lines)
	if marshalErr != nil {
		return errors.Join(circulation.ErrStorageFailure, marshalErr)
	}

	stmt := u.builder().
		Insert(u.table(tableLetters)).
		Cols(colID, "letter_number", colBorrowerID, "letter_type", "line_items", "issued_at").
		Vals(goqu.Vals{
			letter.ID.String(),
			letter.LetterNumber,
			letter.BorrowerID,
			string(letter.Type),
			string(lineItemsJSON),
			letter.IssuedAt,
		})

	return u.execInsert(ctx, stmt)
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}

	return id.String()
}
