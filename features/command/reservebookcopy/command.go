package reservebookcopy

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "ReserveBookCopy"
)

// Command represents the intent of a borrower to join the queue for a copy.
type Command struct {
	CopyID       uuid.UUID
	BorrowerID   circulation.BorrowerIDString
	BorrowerType circulation.BorrowerTypeString
	OccurredAt   circulation.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	copyID uuid.UUID,
	borrowerID circulation.BorrowerIDString,
	borrowerType circulation.BorrowerTypeString,
	occurredAt time.Time,
) Command {

	return Command{
		CopyID:       copyID,
		BorrowerID:   borrowerID,
		BorrowerType: borrowerType,
		OccurredAt:   circulation.ToOccurredAt(occurredAt),
	}
}
