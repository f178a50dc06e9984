package circulation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is the immutable audit record of a completed payment. It is written
// after the ledger mutation inside the same unit of work and never mutated.
// All totals are pre-computed so the rendering side does no arithmetic.
type Receipt struct {
	ID            uuid.UUID
	ReceiptNumber string
	BorrowerID    BorrowerIDString
	CollectedBy   LibrarianIDString
	TotalPaid     decimal.Decimal
	CashReceived  decimal.Decimal
	ChangeGiven   decimal.Decimal
	Lines         []ReceiptLine
	IssuedAt      time.Time
}

// ReceiptLine is one paid fine on a receipt.
type ReceiptLine struct {
	FineID       uuid.UUID       `json:"fine_id"`
	Reason       FineReason      `json:"reason"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// LetterType names the kind of notice issued to a borrower.
type LetterType string

const (
	LetterTypeOverdueNotice LetterType = "overdue_notice"
	LetterTypeFinalNotice   LetterType = "final_notice"
	LetterTypeBillingNotice LetterType = "billing_notice"
)

// Letter is the immutable audit record of an issued notice. Issuing a letter
// never mutates fine state; display amounts are computed once at issue time.
type Letter struct {
	ID           uuid.UUID
	LetterNumber string
	BorrowerID   BorrowerIDString
	Type         LetterType
	Lines        []LetterLine
	IssuedAt     time.Time
}

// LetterLine is one fine listed on a letter. DisplayAmount is the book
// replacement price for lost/damage fines when one is on record, otherwise the
// outstanding balance.
type LetterLine struct {
	FineID        uuid.UUID       `json:"fine_id"`
	Reason        FineReason      `json:"reason"`
	DisplayAmount decimal.Decimal `json:"display_amount"`
}

// BuildReceiptNumber creates a unique, human-legible receipt number.
func BuildReceiptNumber(id uuid.UUID, issuedAt time.Time) string {
	return fmt.Sprintf("RCP-%s-%.8s", issuedAt.UTC().Format("20060102"), hexDigits(id))
}

// BuildLetterNumber creates a unique, human-legible letter number.
func BuildLetterNumber(id uuid.UUID, issuedAt time.Time) string {
	return fmt.Sprintf("LTR-%s-%.8s", issuedAt.UTC().Format("20060102"), hexDigits(id))
}

func hexDigits(id uuid.UUID) string {
	return fmt.Sprintf("%x", [16]byte(id))
}
