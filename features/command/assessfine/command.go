package assessfine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "AssessFine"
)

// Command represents the intent to charge a borrower a fine, either tied to a
// loan (overdue, lost or damaged copy) or standalone.
type Command struct {
	BorrowerID circulation.BorrowerIDString
	LoanID     *uuid.UUID
	Reason     circulation.FineReason
	Amount     decimal.Decimal
	OccurredAt circulation.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	borrowerID circulation.BorrowerIDString,
	loanID *uuid.UUID,
	reason circulation.FineReason,
	amount decimal.Decimal,
	occurredAt time.Time,
) Command {

	return Command{
		BorrowerID: borrowerID,
		LoanID:     loanID,
		Reason:     reason,
		Amount:     amount,
		OccurredAt: circulation.ToOccurredAt(occurredAt),
	}
}
