package circulation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CopyStatus describes the circulation state of a physical book copy.
type CopyStatus string

const (
	CopyStatusAvailable   CopyStatus = "available"
	CopyStatusBorrowed    CopyStatus = "borrowed"
	CopyStatusReserved    CopyStatus = "reserved"
	CopyStatusMaintenance CopyStatus = "maintenance"
	CopyStatusDisposed    CopyStatus = "disposed"
)

// BookCopy identifies one physical item in circulation.
//
// Its Status is a pure function of the open Loan and pending Reservation
// records pointing at it and is only ever written by the command handlers as a
// side effect of loan/reservation transitions, never independently.
type BookCopy struct {
	ID               uuid.UUID
	Title            string
	Status           CopyStatus
	ReplacementPrice *decimal.Decimal
}

// BuildBookCopy creates a new available BookCopy.
func BuildBookCopy(id uuid.UUID, title string) BookCopy {
	return BookCopy{
		ID:     id,
		Title:  title,
		Status: CopyStatusAvailable,
	}
}

// IsCirculating reports whether the copy takes part in lending at all.
// Maintenance and disposed copies can neither be borrowed nor reserved.
func (c BookCopy) IsCirculating() bool {
	return c.Status != CopyStatusMaintenance && c.Status != CopyStatusDisposed
}
