package cancelreservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "CancelReservation"
)

// Command represents the intent to take a reservation out of its queue.
type Command struct {
	ReservationID uuid.UUID
	Reason        string
	OccurredAt    circulation.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(reservationID uuid.UUID, reason string, occurredAt time.Time) Command {
	return Command{
		ReservationID: reservationID,
		Reason:        reason,
		OccurredAt:    circulation.ToOccurredAt(occurredAt),
	}
}
