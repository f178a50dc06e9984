package returnbookcopy

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "ReturnBookCopy"
)

// Command represents the intent to return a borrowed copy to the library.
type Command struct {
	LoanID     uuid.UUID
	OccurredAt circulation.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		OccurredAt: circulation.ToOccurredAt(occurredAt),
	}
}
