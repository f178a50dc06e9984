package expirereservations

import (
	"time"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "ExpireReservations"
)

// Command represents the intent to expire every ready reservation whose
// pickup window has elapsed as of Now.
type Command struct {
	Now circulation.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(now time.Time) Command {
	return Command{
		Now: circulation.ToOccurredAt(now),
	}
}
