package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/circulation/postgresengine/internal/adapters"
)

const (
	logMsgBeginTxFailed       = "failed to begin transaction"
	logMsgCommitFailed        = "failed to commit transaction"
	logMsgRollbackFailed      = "failed to roll back transaction"
	logMsgBuildQueryFailed    = "failed to build query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgTxCommitted         = "transaction committed"
	logMsgTxRolledBack        = "transaction rolled back"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgSQLExecuted         = "executed sql for: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrDurationMS         = "duration_ms"
	dialectPostgres           = "postgres"

	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
)

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyTablePrefix = errors.New("empty table prefix supplied")

type sqlQueryString = string

// CirculationStore is the Postgres-backed storage engine for the circulation
// ledger. All SQL is built with goqu against the postgres dialect; every use
// case runs inside one transaction obtained via WithinTx, with row-level
// locking on the copies, loans, reservations and fines it touches.
type CirculationStore struct {
	db          adapters.DBAdapter
	tablePrefix string
	logger      circulation.Logger
}

// Option defines a functional option for configuring CirculationStore.
type Option func(*CirculationStore) error

// WithTablePrefix sets a prefix for all circulation table names.
func WithTablePrefix(prefix string) Option {
	return func(cs *CirculationStore) error {
		if prefix == "" {
			return ErrEmptyTablePrefix
		}

		cs.tablePrefix = prefix

		return nil
	}
}

// WithLogger sets the logger for the CirculationStore.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: transaction outcomes, concurrency conflicts (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: failures that abort a unit of work.
func WithLogger(logger circulation.Logger) Option {
	return func(cs *CirculationStore) error {
		cs.logger = logger
		return nil
	}
}

// NewCirculationStoreFromPGXPool creates a new CirculationStore using a pgx Pool with optional configuration.
func NewCirculationStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (CirculationStore, error) {
	if db == nil {
		return CirculationStore{}, ErrNilDatabaseConnection
	}

	return newCirculationStore(adapters.NewPGXAdapter(db), options...)
}

// NewCirculationStoreFromSQLDB creates a new CirculationStore using a sql.DB with optional configuration.
func NewCirculationStoreFromSQLDB(db *sql.DB, options ...Option) (CirculationStore, error) {
	if db == nil {
		return CirculationStore{}, ErrNilDatabaseConnection
	}

	return newCirculationStore(adapters.NewSQLAdapter(db), options...)
}

// NewCirculationStoreFromSQLX creates a new CirculationStore using a sqlx.DB with optional configuration.
func NewCirculationStoreFromSQLX(db *sqlx.DB, options ...Option) (CirculationStore, error) {
	if db == nil {
		return CirculationStore{}, ErrNilDatabaseConnection
	}

	return newCirculationStore(adapters.NewSQLXAdapter(db), options...)
}

func newCirculationStore(db adapters.DBAdapter, options ...Option) (CirculationStore, error) {
	cs := CirculationStore{db: db}

	for _, option := range options {
		if err := option(&cs); err != nil {
			return CirculationStore{}, err
		}
	}

	return cs, nil
}

// WithinTx runs fn inside one atomic unit of work. Any error from fn rolls the
// transaction back completely; serialization failures and deadlocks surface as
// circulation.ErrConcurrencyConflict so callers can retry, all other
// infrastructure faults are joined onto circulation.ErrStorageFailure.
func (cs CirculationStore) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, uow circulation.UnitOfWork) error,
) error {

	tx, beginErr := cs.db.Begin(ctx)
	if beginErr != nil {
		if cs.logger != nil {
			cs.logger.Error(logMsgBeginTxFailed, logAttrError, beginErr.Error())
		}

		return mapStorageError(cs.logger, beginErr)
	}

	uow := &unitOfWork{tx: tx, tablePrefix: cs.tablePrefix, logger: cs.logger}

	if fnErr := fn(ctx, uow); fnErr != nil {
		cs.rollback(ctx, tx)
		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		if cs.logger != nil {
			cs.logger.Error(logMsgCommitFailed, logAttrError, commitErr.Error())
		}

		cs.rollback(ctx, tx)

		return mapStorageError(cs.logger, commitErr)
	}

	if cs.logger != nil {
		cs.logger.Info(logMsgTxCommitted)
	}

	return nil
}

func (cs CirculationStore) rollback(ctx context.Context, tx adapters.DBTransaction) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		if cs.logger != nil {
			cs.logger.Warn(logMsgRollbackFailed, logAttrError, rollbackErr.Error())
		}

		return
	}

	if cs.logger != nil {
		cs.logger.Info(logMsgTxRolledBack)
	}
}

// mapStorageError classifies a database error: lost races become
// ErrConcurrencyConflict, everything else ErrStorageFailure.
func mapStorageError(logger circulation.Logger, err error) error {
	if isConcurrencyConflict(err) {
		if logger != nil {
			logger.Info(logMsgConcurrencyConflict, logAttrError, err.Error())
		}

		return errors.Join(circulation.ErrConcurrencyConflict, err)
	}

	return errors.Join(circulation.ErrStorageFailure, err)
}

func isConcurrencyConflict(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgCodeSerializationFailure || pgxErr.Code == pgCodeDeadlockDetected
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == pgCodeSerializationFailure || code == pgCodeDeadlockDetected
	}

	return false
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
