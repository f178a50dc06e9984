package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/postgresengine/internal/adapters"
)

const (
	tableBookCopies   = "book_copies"
	tableLoans        = "loans"
	tableReservations = "reservations"
	tableFines        = "fines"
	tableReceipts     = "receipts"
	tableLetters      = "letters"
	tableAccrualRuns  = "accrual_runs"

	colID               = "id"
	colTitle            = "title"
	colStatus           = "status"
	colReplacementPrice = "replacement_price"
	colCopyID           = "copy_id"
	colBorrowerID       = "borrower_id"
	colBorrowerType     = "borrower_type"
	colBorrowDate       = "borrow_date"
	colDueDate          = "due_date"
	colReturnDate       = "return_date"
	colRenewalCount     = "renewal_count"
	colFineAmount       = "fine_amount"
	colRequestedAt      = "requested_at"
	colQueuePosition    = "queue_position"
	colPickupDeadline   = "pickup_deadline"
	colCancelReason     = "cancel_reason"
	colLoanID           = "loan_id"
	colAmount           = "amount"
	colAmountPaid       = "amount_paid"
	colBalanceDue       = "balance_due"
	colReason           = "reason"
	colPaymentStatus    = "payment_status"
	colCollectedBy      = "collected_by"
	colPaymentDate      = "payment_date"
	colRunDate          = "run_date"
	colRanAt            = "ran_at"

	logActionSelect = "select"
	logActionInsert = "insert"
	logActionUpdate = "update"
)

var errNoRowsAffected = errors.New("no rows were affected")

// unitOfWork implements circulation.UnitOfWork on top of one database
// transaction. It is handed to the callback of CirculationStore.WithinTx and
// must not outlive it.
type unitOfWork struct {
	tx          adapters.DBTransaction
	tablePrefix string
	logger      circulation.Logger
}

func (u *unitOfWork) table(name string) string {
	return u.tablePrefix + name
}

func (u *unitOfWork) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// queryRows executes a built select statement and returns its rows.
func (u *unitOfWork) queryRows(ctx context.Context, stmt *goqu.SelectDataset) (adapters.DBRows, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		if u.logger != nil {
			u.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		}

		return nil, errors.Join(circulation.ErrStorageFailure, toSQLErr)
	}

	start := time.Now()
	rows, queryErr := u.tx.Query(ctx, sqlQuery)
	u.logQueryWithDuration(sqlQuery, logActionSelect, time.Since(start))

	if queryErr != nil {
		if u.logger != nil {
			u.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return nil, mapStorageError(u.logger, queryErr)
	}

	return rows, nil
}

// execSQL executes a finalized statement and returns the affected row count.
func (u *unitOfWork) execSQL(ctx context.Context, sqlQuery sqlQueryString, action string) (int64, error) {
	start := time.Now()
	result, execErr := u.tx.Exec(ctx, sqlQuery)
	u.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if execErr != nil {
		if u.logger != nil {
			u.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return 0, mapStorageError(u.logger, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		return 0, mapStorageError(u.logger, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// execInsert executes a built insert statement.
func (u *unitOfWork) execInsert(ctx context.Context, stmt *goqu.InsertDataset) error {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		if u.logger != nil {
			u.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		}

		return errors.Join(circulation.ErrStorageFailure, toSQLErr)
	}

	_, execErr := u.execSQL(ctx, sqlQuery, logActionInsert)

	return execErr
}

// execUpdate executes a built update statement and requires that it touched at
// least one row, so a lost row surfaces instead of silently updating nothing.
func (u *unitOfWork) execUpdate(ctx context.Context, stmt *goqu.UpdateDataset) error {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		if u.logger != nil {
			u.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		}

		return errors.Join(circulation.ErrStorageFailure, toSQLErr)
	}

	rowsAffected, execErr := u.execSQL(ctx, sqlQuery, logActionUpdate)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return errors.Join(circulation.ErrStorageFailure, errNoRowsAffected)
	}

	return nil
}

// closeRows safely closes database rows and logs any errors.
func (u *unitOfWork) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if u.logger != nil {
			u.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

func (u *unitOfWork) scanError(scanErr error) error {
	if u.logger != nil {
		u.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
	}

	return errors.Join(circulation.ErrStorageFailure, scanErr)
}

// logQueryWithDuration logs SQL statements with execution time at debug level if the logger is configured.
func (u *unitOfWork) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if u.logger != nil {
		u.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// AccrualRanOn implements circulation.AccrualStore.
func (u *unitOfWork) AccrualRanOn(ctx context.Context, day time.Time) (bool, error) {
	stmt := u.builder().
		From(u.table(tableAccrualRuns)).
		Select(colRunDate).
		Where(goqu.C(colRunDate).Eq(circulation.StartOfDay(day)))

	rows, err := u.queryRows(ctx, stmt)
	if err != nil {
		return false, err
	}
	defer u.closeRows(rows)

	return rows.Next(), nil
}

// MarkAccrualRun implements circulation.AccrualStore.
func (u *unitOfWork) MarkAccrualRun(ctx context.Context, day time.Time) error {
	stmt := u.builder().
		Insert(u.table(tableAccrualRuns)).
		Cols(colRunDate, colRanAt).
		Vals(goqu.Vals{circulation.StartOfDay(day), circulation.ToOccurredAt(time.Now())})

	return u.execInsert(ctx, stmt)
}
