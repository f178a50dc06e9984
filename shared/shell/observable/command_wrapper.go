package observable

import (
	"context"
	"time"

	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandWrapper instruments any command handler with metrics, tracing and
// logging. It is pure decoration: the wrapped handler keeps the retry loop,
// transaction handling and notification dispatch, the wrapper only records
// what happened.
type CommandWrapper[C shell.Command] struct {
	coreHandler      shell.CommandHandler[C]
	commandType      string
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// Option configures a CommandWrapper.
type Option[C shell.Command] func(*CommandWrapper[C])

// WithCommandMetrics sets the metrics collector for the wrapper.
func WithCommandMetrics[C shell.Command](collector shell.MetricsCollector) Option[C] {
	return func(w *CommandWrapper[C]) {
		w.metricsCollector = collector
	}
}

// WithCommandTracing sets the tracing collector for the wrapper.
func WithCommandTracing[C shell.Command](collector shell.TracingCollector) Option[C] {
	return func(w *CommandWrapper[C]) {
		w.tracingCollector = collector
	}
}

// WithCommandContextualLogging sets the context-aware logger for the wrapper.
func WithCommandContextualLogging[C shell.Command](logger shell.ContextualLogger) Option[C] {
	return func(w *CommandWrapper[C]) {
		w.contextualLogger = logger
	}
}

// WithCommandLogging sets the basic logger for the wrapper.
func WithCommandLogging[C shell.Command](logger shell.Logger) Option[C] {
	return func(w *CommandWrapper[C]) {
		w.logger = logger
	}
}

// NewCommandWrapper creates an observable wrapper around the given handler.
// The command type label is taken from the zero value of C.
func NewCommandWrapper[C shell.Command](
	coreHandler shell.CommandHandler[C],
	opts ...Option[C],
) *CommandWrapper[C] {

	var zeroCommand C

	wrapper := &CommandWrapper[C]{
		coreHandler: coreHandler,
		commandType: zeroCommand.CommandType(),
	}

	for _, opt := range opts {
		opt(wrapper)
	}

	return wrapper
}

// Handle delegates to the wrapped handler and records the outcome: duration
// and call counters per status, retry metadata from the handler result, one
// span per invocation, and start/completion log lines.
func (w *CommandWrapper[C]) Handle(ctx context.Context, command C) (shell.HandlerResult, error) {
	start := time.Now()
	ctx, span := shell.StartCommandSpan(ctx, w.tracingCollector, w.commandType)
	shell.LogCommandStart(ctx, w.logger, w.contextualLogger, w.commandType)

	result, err := w.coreHandler.Handle(ctx, command)

	w.recordRetryMetrics(result)

	duration := time.Since(start)

	if err != nil {
		status := shell.StatusFromError(err)
		shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, status, duration)
		shell.FinishCommandSpan(w.tracingCollector, span, status, duration, err)
		shell.LogCommandError(ctx, w.logger, w.contextualLogger, w.commandType, err)

		return result, err
	}

	status := shell.StatusSuccess
	if result.Idempotent {
		status = shell.StatusIdempotent
	}

	shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, status, duration)
	shell.FinishCommandSpan(w.tracingCollector, span, status, duration, nil)
	shell.LogCommandSuccess(ctx, w.logger, w.contextualLogger, w.commandType, status, duration)

	return result, nil
}

func (w *CommandWrapper[C]) recordRetryMetrics(result shell.HandlerResult) {
	if w.metricsCollector == nil {
		return
	}

	if result.RetryAttempts > 1 {
		w.metricsCollector.IncrementCounter(shell.CommandHandlerRetriesMetric,
			shell.BuildRetryLabels(w.commandType, result.RetryAttempts-1, result.LastErrorType))
		w.metricsCollector.RecordDuration(shell.CommandHandlerRetryDelayMetric,
			result.TotalRetryDelay, map[string]string{shell.LogAttrCommandType: w.commandType})
	}

	if result.RetriesExhausted {
		w.metricsCollector.IncrementCounter(shell.CommandHandlerMaxRetriesReachedMetric,
			map[string]string{shell.LogAttrCommandType: w.commandType})
	}
}
