package accrueoverduefines

import (
	"time"

	"github.com/campuslib/circulation-go/circulation"
)

const (
	commandType = "AccrueOverdueFines"
)

// Command represents the intent to run the overdue accrual for one calendar
// day. The day is the sole idempotency key: running the accrual twice for the
// same day is a no-op.
type Command struct {
	Day time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command for the given day.
func BuildCommand(day time.Time) Command {
	return Command{
		Day: circulation.StartOfDay(day),
	}
}
