package circulation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NegligibleBalance is the epsilon below which a remaining balance is treated
// as fully paid and zeroed. It absorbs rounding drift accumulated over
// multi-step partial payments.
var NegligibleBalance = decimal.RequireFromString("0.01")

// FineReason names why a fine was assessed.
type FineReason string

const (
	FineReasonOverdue FineReason = "overdue"
	FineReasonLost    FineReason = "lost"
	FineReasonDamage  FineReason = "damage"
)

// PaymentStatus describes how much of a fine has been settled. It is a pure
// function of Amount and AmountPaid, recomputed on every write path.
type PaymentStatus string

const (
	PaymentStatusUnpaid      PaymentStatus = "unpaid"
	PaymentStatusPartialPaid PaymentStatus = "partial_paid"
	PaymentStatusPaid        PaymentStatus = "paid"
)

// Fine is a monetary obligation of a borrower, usually tied to a loan.
//
// BalanceDue stored on the fine is the sole authority for what is still owed;
// the loan-side FineAmount is only a denormalized mirror. Fines are updated by
// payments but never deleted.
type Fine struct {
	ID            uuid.UUID
	LoanID        *uuid.UUID
	BorrowerID    BorrowerIDString
	Amount        decimal.Decimal
	AmountPaid    decimal.Decimal
	BalanceDue    decimal.Decimal
	Reason        FineReason
	PaymentStatus PaymentStatus
	CollectedBy   LibrarianIDString
	PaymentDate   *time.Time
}

// BuildFine creates a new unpaid fine.
func BuildFine(
	id uuid.UUID,
	loanID *uuid.UUID,
	borrowerID BorrowerIDString,
	reason FineReason,
	amount decimal.Decimal,
) Fine {

	return Fine{
		ID:            id,
		LoanID:        loanID,
		BorrowerID:    borrowerID,
		Amount:        amount,
		AmountPaid:    decimal.Zero,
		BalanceDue:    amount,
		Reason:        reason,
		PaymentStatus: PaymentStatusUnpaid,
	}
}

// IsSettled reports whether nothing is owed on the fine anymore.
func (f Fine) IsSettled() bool {
	return f.PaymentStatus == PaymentStatusPaid
}

// IsOpen reports whether the fine still carries a balance.
func (f Fine) IsOpen() bool {
	return f.PaymentStatus == PaymentStatusUnpaid || f.PaymentStatus == PaymentStatusPartialPaid
}

// Reassess replaces the fine's amount with a fresh calculation, keeping
// payments already made and recomputing balance and status. Used by the
// idempotent overdue accrual: re-running the assessment for the same loan
// updates the open fine instead of creating a duplicate. The new amount is
// floored at the total already collected, so AmountPaid never exceeds Amount.
func (f Fine) Reassess(amount decimal.Decimal) Fine {
	if amount.LessThan(f.AmountPaid) {
		amount = f.AmountPaid
	}

	f.Amount = amount
	f.BalanceDue = clampNegligible(f.Amount.Sub(f.AmountPaid))
	f.PaymentStatus = derivePaymentStatus(f.Amount, f.AmountPaid, f.BalanceDue)

	return f
}

// ApplyPayment records a payment of the given amount against the fine.
// The caller must have verified amount <= BalanceDue beforehand; the balance
// is clamped to zero once it drops to the negligible epsilon.
func (f Fine) ApplyPayment(amount decimal.Decimal, collectedBy LibrarianIDString, paidAt time.Time) Fine {
	f.AmountPaid = f.AmountPaid.Add(amount)
	f.BalanceDue = clampNegligible(f.BalanceDue.Sub(amount))
	f.PaymentStatus = derivePaymentStatus(f.Amount, f.AmountPaid, f.BalanceDue)
	f.CollectedBy = collectedBy
	at := ToOccurredAt(paidAt)
	f.PaymentDate = &at

	return f
}

func clampNegligible(balance decimal.Decimal) decimal.Decimal {
	if balance.LessThanOrEqual(NegligibleBalance) {
		return decimal.Zero
	}

	return balance
}

func derivePaymentStatus(amount decimal.Decimal, amountPaid decimal.Decimal, balanceDue decimal.Decimal) PaymentStatus {
	switch {
	case balanceDue.IsZero() && amountPaid.GreaterThan(decimal.Zero):
		return PaymentStatusPaid
	case amountPaid.GreaterThan(decimal.Zero) && amountPaid.LessThan(amount):
		return PaymentStatusPartialPaid
	default:
		return PaymentStatusUnpaid
	}
}
