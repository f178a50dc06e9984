package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by store lookups when no record matches.
var ErrNotFound = errors.New("record not found")

// CopyStore provides access to book copy rows inside a unit of work.
type CopyStore interface {
	CopyByID(ctx context.Context, id uuid.UUID) (BookCopy, error)

	// CopyForUpdate loads a copy with row-level exclusivity so that two
	// concurrent checkouts/returns of the same copy serialize.
	CopyForUpdate(ctx context.Context, id uuid.UUID) (BookCopy, error)

	InsertCopy(ctx context.Context, copy BookCopy) error
	UpdateCopyStatus(ctx context.Context, id uuid.UUID, status CopyStatus) error
}

// LoanStore provides access to loan rows inside a unit of work.
type LoanStore interface {
	LoanByID(ctx context.Context, id uuid.UUID) (Loan, error)
	LoanForUpdate(ctx context.Context, id uuid.UUID) (Loan, error)

	// OpenLoanForCopy returns the single open loan for a copy, locked, or nil.
	OpenLoanForCopy(ctx context.Context, copyID uuid.UUID) (*Loan, error)

	OpenLoanCountForBorrower(ctx context.Context, borrowerID BorrowerIDString) (int, error)
	OpenLoansDueBefore(ctx context.Context, day time.Time) ([]Loan, error)
	InsertLoan(ctx context.Context, loan Loan) error
	UpdateLoan(ctx context.Context, loan Loan) error
}

// ReservationStore provides access to reservation rows inside a unit of work.
type ReservationStore interface {
	ReservationForUpdate(ctx context.Context, id uuid.UUID) (Reservation, error)

	// ActiveReservationsForCopy returns the waiting/ready reservations for a
	// copy, locked, so concurrent promotions cannot hand out the same position.
	ActiveReservationsForCopy(ctx context.Context, copyID uuid.UUID) ([]Reservation, error)

	ActiveReservationCountForBorrower(ctx context.Context, borrowerID BorrowerIDString) (int, error)
	ReadyReservationsPastDeadline(ctx context.Context, now time.Time) ([]Reservation, error)
	InsertReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
}

// FineStore provides access to fine rows inside a unit of work.
type FineStore interface {
	FineByID(ctx context.Context, id uuid.UUID) (Fine, error)

	// FineForUpdate locks the fine row so a payment cannot be applied against
	// a stale balance.
	FineForUpdate(ctx context.Context, id uuid.UUID) (Fine, error)

	// OpenFineForLoan returns the unpaid or partially paid fine with the given
	// reason tied to the loan, locked, or nil. It backs the idempotent assess.
	OpenFineForLoan(ctx context.Context, loanID uuid.UUID, reason FineReason) (*Fine, error)

	OpenFinesForBorrower(ctx context.Context, borrowerID BorrowerIDString) ([]Fine, error)
	InsertFine(ctx context.Context, fine Fine) error
	UpdateFine(ctx context.Context, fine Fine) error
}

// AuditStore appends immutable receipt and letter records.
type AuditStore interface {
	InsertReceipt(ctx context.Context, receipt Receipt) error
	InsertLetter(ctx context.Context, letter Letter) error
}

// AccrualStore guards the nightly overdue accrual with a per-day marker so
// running the batch twice on one day is a no-op.
type AccrualStore interface {
	AccrualRanOn(ctx context.Context, day time.Time) (bool, error)
	MarkAccrualRun(ctx context.Context, day time.Time) error
}

// UnitOfWork is the full storage contract available inside one atomic,
// isolated transaction. Either every mutation performed through it commits, or
// none does.
type UnitOfWork interface {
	CopyStore
	LoanStore
	ReservationStore
	FineStore
	AuditStore
	AccrualStore
}

// TxRunner executes a function within one unit of work. Returning an error
// from fn rolls the transaction back completely; engines surface lost races as
// ErrConcurrencyConflict so callers can retry.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
