package checkoutbookcopy

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "CheckoutBookCopy"
)

// Command represents the intent to check a book copy out to a borrower.
// It encapsulates all the necessary information required to execute the checkout use case.
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
