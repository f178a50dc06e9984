package payfines

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "PayFines"
)

// PaymentLine is one selected fine and the amount tendered against it.
type PaymentLine struct {
	FineID uuid.UUID
	Amount decimal.Decimal
}

// Command represents the intent to settle one or more fines in a single cash
// transaction at the circulation desk.
type Command struct {
	Lines        []PaymentLine
	CashReceived decimal.Decimal
	CollectedBy  circulation.LibrarianIDString
	OccurredAt   circulation.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// TotalTendered sums the per-fine amounts.
func (c Command) TotalTendered() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Amount)
	}

	return total
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	lines []PaymentLine,
	cashReceived decimal.Decimal,
	collectedBy circulation.LibrarianIDString,
	occurredAt time.Time,
) Command {

	return Command{
		Lines:        lines,
		CashReceived: cashReceived,
		CollectedBy:  collectedBy,
		OccurredAt:   circulation.ToOccurredAt(occurredAt),
	}
}
