package postgresengine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/postgresengine/internal/adapters"
)

// These tests verify the SQL the unit of work generates without a database:
// a recording transaction captures every statement and returns empty result
// sets, which also exercises the not-found mapping of the single-row loads.

func Test_CopyForUpdate_BuildsRowLockingSelect(t *testing.T) {
	// arrange
	tx := &recordingTx{}
	uow := &unitOfWork{tx: tx}
	copyID := uuid.New()

	// act
	_, err := uow.CopyForUpdate(context.Background(), copyID)

	// assert
	assert.ErrorIs(t, err, circulation.ErrNotFound)
	require.Len(t, tx.queries, 1)
	assert.Contains(t, tx.queries[0], `"book_copies"`)
	assert.Contains(t, tx.queries[0], copyID.String())
	assert.Contains(t, tx.queries[0], "FOR UPDATE")
}

func Test_CopyByID_BuildsPlainSelect(t *testing.T) {
	// arrange
	tx := &recordingTx{}
	uow := &unitOfWork{tx: tx}

	// act
	_, err := uow.CopyByID(context.Background(), uuid.New())

	// assert
	assert.ErrorIs(t, err, circulation.ErrNotFound)
	require.Len(t, tx.queries, 1)
	assert.NotContains(t, tx.queries[0], "FOR UPDATE")
}

func Test_ActiveReservationsForCopy_LocksAndOrdersByPosition(t *testing.T) {
	// arrange
	tx := &recordingTx{}
	uow := &unitOfWork{tx: tx}
	copyID := uuid.New()

	// act
	reservations, err := uow.ActiveReservationsForCopy(context.Background(), copyID)

	// assert
	require.NoError(t, err)
	assert.Empty(t, reservations)
	require.Len(t, tx.queries, 1)
	assert.Contains(t, tx.queries[0], `"reservations"`)
	assert.Contains(t, tx.queries[0], "'waiting'")
	assert.Contains(t, tx.queries[0], "'ready'")
	assert.Contains(t, tx.queries[0], `"queue_position" ASC`)
	assert.Contains(t, tx.queries[0], "FOR UPDATE")
}

func Test_OpenFineForLoan_FiltersOnOpenPaymentStatuses(t *testing.T) {
	// arrange
	tx := &recordingTx{}
	uow := &unitOfWork{tx: tx}
	loanID := uuid.New()

	// act
	fine, err := uow.OpenFineForLoan(context.Background(), loanID, circulation.FineReasonOverdue)

	// assert: no open fine is not an error
	require.NoError(t, err)
	assert.Nil(t, fine)
	require.Len(t, tx.queries, 1)
	assert.Contains(t, tx.queries[0], `"fines"`)
	assert.Contains(t, tx.queries[0], loanID.String())
	assert.Contains(t, tx.queries[0], "'overdue'")
	assert.Contains(t, tx.queries[0], "'unpaid'")
	assert.Contains(t, tx.queries[0], "'partial_paid'")
}

func Test_UpdateCopyStatus_RequiresAnAffectedRow(t *testing.T) {
	// arrange: the exec reports zero affected rows
	tx := &recordingTx{affectedRows: 0}
	uow := &unitOfWork{tx: tx}

	// act
	err := uow.UpdateCopyStatus(context.Background(), uuid.New(), circulation.CopyStatusBorrowed)

	// assert
	assert.ErrorIs(t, err, circulation.ErrStorageFailure)
	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0], `UPDATE "book_copies"`)
	assert.Contains(t, tx.execs[0], "'borrowed'")
}

func Test_TablePrefix_IsAppliedToEveryStatement(t *testing.T) {
	// arrange
	tx := &recordingTx{affectedRows: 1}
	uow := &unitOfWork{tx: tx, tablePrefix: "lib_"}

	// act
	_, loadErr := uow.CopyByID(context.Background(), uuid.New())
	execErr := uow.UpdateCopyStatus(context.Background(), uuid.New(), circulation.CopyStatusAvailable)

	// assert
	assert.ErrorIs(t, loadErr, circulation.ErrNotFound)
	assert.NoError(t, execErr)
	assert.Contains(t, tx.queries[0], `"lib_book_copies"`)
	assert.Contains(t, tx.execs[0], `"lib_book_copies"`)
}

func Test_MarkAccrualRun_InsertsNormalizedRunDate(t *testing.T) {
	// arrange
	tx := &recordingTx{affectedRows: 1}
	uow := &unitOfWork{tx: tx}

	// act
	err := uow.MarkAccrualRun(context.Background(), time.Now())

	// assert
	require.NoError(t, err)
	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0], `INSERT INTO "accrual_runs"`)
}

// recordingTx implements adapters.DBTransaction, capturing statements and
// returning empty result sets.
type recordingTx struct {
	queries      []string
	execs        []string
	affectedRows int64
}

func (t *recordingTx) Query(_ context.Context, query string) (adapters.DBRows, error) {
	t.queries = append(t.queries, query)
	return emptyRows{}, nil
}

func (t *recordingTx) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	t.execs = append(t.execs, query)
	return staticResult{rows: t.affectedRows}, nil
}

func (t *recordingTx) Commit(_ context.Context) error   { return nil }
func (t *recordingTx) Rollback(_ context.Context) error { return nil }

type emptyRows struct{}

func (emptyRows) Next() bool        { return false }
func (emptyRows) Scan(...any) error { return nil }
func (emptyRows) Close() error      { return nil }

type staticResult struct {
	rows int64
}

func (r staticResult) RowsAffected() (int64, error) { return r.rows, nil }
