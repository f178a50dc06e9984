package issueletter

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "IssueLetter"
)

// Command represents the intent to issue a printed notice to a borrower
// listing a selection of their fines.
type Command struct {
	BorrowerID circulation.BorrowerIDString
	Type       circulation.LetterType
	FineIDs    []uuid.UUID
	OccurredAt circulation.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	borrowerID circulation.BorrowerIDString,
	letterType circulation.LetterType,
	fineIDs []uuid.UUID,
	occurredAt time.Time,
) Command {

	return Command{
		BorrowerID: borrowerID,
		Type:       letterType,
		FineIDs:    fineIDs,
		OccurredAt: circulation.ToOccurredAt(occurredAt),
	}
}
