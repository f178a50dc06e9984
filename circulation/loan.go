package circulation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus describes the stored state of a loan.
//
// "overdue" is deliberately not a stored status: it is derived at read time
// via EffectiveStatus so that the stored state can never drift from the due
// date. Loans are append-only history, they are closed but never deleted.
type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "borrowed"
	LoanStatusReturned LoanStatus = "returned"

	// LoanStatusOverdue only ever appears as the result of EffectiveStatus.
	LoanStatusOverdue LoanStatus = "overdue"
)

// Loan is one borrowing event of a copy by a borrower.
//
// FineAmount mirrors the outstanding balance of the overdue fine tied to this
// loan. It is a denormalized display value maintained by the command handlers;
// the Fine row's BalanceDue is the sole authority.
type Loan struct {
	ID           uuid.UUID
	CopyID       uuid.UUID
	BorrowerID   BorrowerIDString
	BorrowerType BorrowerTypeString
	BorrowDate   time.Time
	DueDate      time.Time
	ReturnDate   *time.Time
	Status       LoanStatus
	RenewalCount int
	FineAmount   decimal.Decimal
}

// BuildLoan creates a new open loan starting at borrowDate and due periodDays later.
func BuildLoan(
	id uuid.UUID,
	copyID uuid.UUID,
	borrowerID BorrowerIDString,
	borrowerType BorrowerTypeString,
	borrowDate time.Time,
	periodDays int,
) Loan {

	return Loan{
		ID:           id,
		CopyID:       copyID,
		BorrowerID:   borrowerID,
		BorrowerType: borrowerType,
		BorrowDate:   StartOfDay(borrowDate),
		DueDate:      StartOfDay(borrowDate).AddDate(0, 0, periodDays),
		Status:       LoanStatusBorrowed,
		FineAmount:   decimal.Zero,
	}
}

// IsOpen reports whether the copy is still out with the borrower.
func (l Loan) IsOpen() bool {
	return l.Status == LoanStatusBorrowed
}

// IsOverdue reports whether the loan is open and past its due date.
func (l Loan) IsOverdue(today time.Time) bool {
	return l.IsOpen() && StartOfDay(today).After(StartOfDay(l.DueDate))
}

// EffectiveStatus derives the display status: an open loan past its due date
// shows as overdue without that ever being written to storage.
func (l Loan) EffectiveStatus(today time.Time) LoanStatus {
	if l.IsOverdue(today) {
		return LoanStatusOverdue
	}

	return l.Status
}

// DaysOverdue returns how many whole days the loan is past due, zero if it is not.
func (l Loan) DaysOverdue(today time.Time) int {
	if !l.IsOverdue(today) {
		return 0
	}

	return DaysBetween(l.DueDate, today)
}
