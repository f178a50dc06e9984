package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/postgresengine/internal/adapters"
)

func loanColumns() []any {
	return []any{
		colID, colCopyID, colBorrowerID, colBorrowerType, colBorrowDate,
		colDueDate, colReturnDate, colStatus, colRenewalCount, colFineAmount,
	}
}

// LoanByID implements circulation.LoanStore.
func (u *unitOfWork) LoanByID(ctx context.Context, id uuid.UUID) (circulation.Loan, error) {
	return u.loadLoan(ctx, goqu.C(colID).Eq(id.String()), false)
}

// LoanForUpdate implements circulation.LoanStore with a FOR UPDATE row lock.
func (u *unitOfWork) LoanForUpdate(ctx context.Context, id uuid.UUID) (circulation.Loan, error) {
	return u.loadLoan(ctx, goqu.C(colID).Eq(id.String()), true)
}

// OpenLoanForCopy implements circulation.LoanStore. The schema guarantees at
// most one open loan per copy; it is returned locked, or nil if the copy is
// not out.
func (u *unitOfWork) OpenLoanForCopy(ctx context.Context, copyID uuid.UUID) (*circulation.Loan, error) {
	where := goqu.And(
		goqu.C(colCopyID).Eq(copyID.String()),
		goqu.C(colStatus).Eq(string(circulation.LoanStatusBorrowed)),
	)

	loan, err := u.loadLoan(ctx, where, true)
	if err != nil {
		if errors.Is(err, circulation.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &loan, nil
}

func (u *unitOfWork) loadLoan(ctx context.Context, where exp.Expression, forUpdate bool) (circulation.Loan, error) {
	stmt := u.builder().
		From(u.table(tableLoans)).
		Select(loanColumns()...).
		Where(where)

	if forUpdate {
		stmt = stmt.ForUpdate(exp.Wait)
	}

	rows, err := u.queryRows(ctx, stmt)
	if err != nil {
		return circulation.Loan{}, err
	}
	defer u.closeRows(rows)

	if !rows.Next() {
		return circulation.Loan{}, circulation.ErrNotFound
	}

	return u.scanLoan(rows)
}

func (u *unitOfWork) scanLoan(rows adapters.DBRows) (circulation.Loan, error) {
	var loanRow struct {
		id           uuid.UUID
		copyID       uuid.UUID
		borrowerID   string
		borrowerType string
		borrowDate   time.Time
		dueDate      time.Time
		returnDate   sql.NullTime
		status       string
		renewalCount int
		fineAmount   decimal.Decimal
	}

	scanErr := rows.Scan(
		&loanRow.id, &loanRow.copyID, &loanRow.borrowerID, &loanRow.borrowerType,
		&loanRow.borrowDate, &loanRow.dueDate, &loanRow.returnDate,
		&loanRow.status, &loanRow.renewalCount, &loanRow.fineAmount,
	)
	if scanErr != nil {
		return circulation.Loan{}, u.scanError(scanErr)
	}

	loan := circulation.Loan{
		ID:           loanRow.id,
		CopyID:       loanRow.copyID,
		BorrowerID:   loanRow.borrowerID,
		BorrowerType: loanRow.borrowerType,
		BorrowDate:   loanRow.borrowDate,
		DueDate:      loanRow.dueDate,
		Status:       circulation.LoanStatus(loanRow.status),
		RenewalCount: loanRow.renewalCount,
		FineAmount:   loanRow.fineAmount,
	}

	if loanRow.returnDate.Valid {
		returnDate := loanRow.returnDate.Time
		loan.ReturnDate = &returnDate
	}

	return loan, nil
}

// OpenLoanCountForBorrower implements circulation.LoanStore.
func (u *unitOfWork) OpenLoanCountForBorrower(ctx context.Context, borrowerID circulation.BorrowerIDString) (int, error) {
	stmt := u.builder().
		From(u.table(tableLoans)).
		Select(goqu.COUNT(colID)).
		Where(goqu.And(
			goqu.C(colBorrowerID).Eq(borrowerID),
			goqu.C(colStatus).Eq(string(circulation.LoanStatusBorrowed)),
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

// OpenLoansDueBefore implements circulation.LoanStore; used by the nightly accrual.
func (u *unitOfWork) OpenLoansDueBefore(ctx context.Context, day time.Time) ([]circulation.Loan, error) {
	stmt := u.builder().
		From(u.table(tableLoans)).
		Select(loanColumns()...).
		Where(goqu.And(
			goqu.C(colStatus).Eq(string(circulation.LoanStatusBorrowed)),
			goqu.C(colDueDate).Lt(circulation.StartOfDay(day)),
		)).
		Order(goqu.I(colDueDate).Asc()).
		ForUpdate(exp.Wait)

	rows, err := u.queryRows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer u.closeRows(rows)

	loans := make([]circulation.Loan, 0)

	for rows.Next() {
		loan, scanErr := u.scanLoan(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

// InsertLoan implements circulation.LoanStore.
func (u *unitOfWork) InsertLoan(ctx context.Context, loan circulation.Loan) error {
	stmt := u.builder().
		Insert(u.table(tableLoans)).
		Cols(colID, colCopyID, colBorrowerID, colBorrowerType, colBorrowDate,
			colDueDate, colReturnDate, colStatus, colRenewalCount, colFineAmount).
		Vals(goqu.Vals{
			loan.ID.String(),
			loan.CopyID.String(),
			loan.BorrowerID,
			loan.BorrowerType,
			loan.BorrowDate,
			loan.DueDate,
			nullableTime(loan.ReturnDate),
			string(loan.Status),
			loan.RenewalCount,
			loan.FineAmount,
		})

	return u.execInsert(ctx, stmt)
}

// UpdateLoan implements circulation.LoanStore.
func (u *unitOfWork) UpdateLoan(ctx context.Context, loan circulation.Loan) error {
	stmt := u.builder().
		Update(u.table(tableLoans)).
		Set(goqu.Record{
			colDueDate:      loan.DueDate,
			colReturnDate:   nullableTime(loan.ReturnDate),
			colStatus:       string(loan.Status),
			colRenewalCount: loan.RenewalCount,
			colFineAmount:   loan.FineAmount,
		}).
		Where(goqu.C(colID).Eq(loan.ID.String()))

	return u.execUpdate(ctx, stmt)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}
