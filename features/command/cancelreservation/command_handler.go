package cancelreservation

import (
	"context"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler orchestrates the cancellation workflow: it takes the
// reservation out of the queue, compacts the remaining positions, and when
// the cancelled reservation held the copy, offers it to the next in line.
type CommandHandler struct {
	txRunner     circulation.TxRunner
	notifier     shell.Notifier
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(txRunner circulation.TxRunner, notifier shell.Notifier, opts ...Option) CommandHandler {
	handler := CommandHandler{
		txRunner: txRunner,
		notifier: notifier,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the cancellation workflow: Load -> Decide -> Persist -> Promote.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var isIdempotent bool
	var notifications []circulation.NotificationRequest

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		notifications = nil

		idempotent, execErr := h.executeCommand(retryCtx, command, &notifications)
		isIdempotent = idempotent

		return execErr
	}, h.retryOptions...)

	if isIdempotent {
		return shell.NewIdempotentResult(retryMetrics), err
	}

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	if h.notifier != nil {
		h.notifier.Dispatch(notifications...)
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(
	ctx context.Context,
	command Command,
	notifications *[]circulation.NotificationRequest,
) (bool, error) {

	isIdempotent := false

	txErr := h.txRunner.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		reservation, err := uow.ReservationForUpdate(txCtx, command.ReservationID)
		if err != nil {
			return err
		}

		bookCopy, err := uow.CopyForUpdate(txCtx, reservation.CopyID)
		if err != nil {
			return err
		}

		reservations, err := uow.ActiveReservationsForCopy(txCtx, reservation.CopyID)
		if err != nil {
			return err
		}

		changes, result := Decide(State{Reservation: reservation}, command)
		if decideErr := result.HasError(); decideErr != nil {
			return decideErr
		}

		if !result.HasChangesToPersist() {
			isIdempotent = true
			return nil
		}

		if err = shell.RemoveFromQueue(txCtx, uow, changes.CancelledReservation, reservations); err != nil {
			return err
		}

		*notifications = append(*notifications, result.Notifications...)

		if !changes.WasReady {
			return nil
		}

		notification, promoteErr := shell.PromoteCopy(txCtx, uow, bookCopy, command.OccurredAt)
		if promoteErr != nil {
			return promoteErr
		}

		if notification != nil {
			*notifications = append(*notifications, *notification)
		}

		return nil
	})

	return isIdempotent, txErr
}
