package fulfillreservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "FulfillReservation"
)

// Command represents the intent to hand a ready-held copy to the borrower who
// reserved it, converting the reservation into a loan.
type Command struct {
	ReservationID uuid.UUID
	BorrowerType  circulation.BorrowerTypeString
	OccurredAt    circulation.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	reservationID uuid.UUID,
	borrowerType circulation.BorrowerTypeString,
	occurredAt time.Time,
) Command {

	return Command{
		ReservationID: reservationID,
		BorrowerType:  borrowerType,
		OccurredAt:    circulation.ToOccurredAt(occurredAt),
	}
}
