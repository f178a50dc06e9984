package outstandingfines

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
)

// FineInfo represents one open fine of the borrower.
type FineInfo struct {
	FineID      uuid.UUID
	LoanID      *uuid.UUID
	Reason      circulation.FineReason
	Amount      decimal.Decimal
	AmountPaid  decimal.Decimal
	BalanceDue  decimal.Decimal
	Status      circulation.PaymentStatus
	LastPayment *time.Time
}

// OutstandingFines represents the query result: the borrower's open fines and
// the total still owed across all of them.
type OutstandingFines struct {
	BorrowerID circulation.BorrowerIDString
	Fines      []FineInfo
	TotalDue   decimal.Decimal
	Count      int
}
