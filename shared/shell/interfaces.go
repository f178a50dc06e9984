package shell

import "context"

// Command represents the contract for all command types in the circulation
// application. The CommandType method identifies the use case in logs,
// metrics and traces.
type Command interface {
	CommandType() string
}

// CommandHandler defines the contract for components that process commands.
// The concrete handlers in features/command implement it with their own
// Command type; the observable wrapper decorates any of them without knowing
// the use case.
type CommandHandler[C Command] interface {
	Handle(ctx context.Context, command C) (HandlerResult, error)
}
