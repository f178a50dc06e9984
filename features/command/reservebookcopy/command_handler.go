package reservebookcopy

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler orchestrates the reserve workflow inside one transaction.
// When the copy is free the new reservation is promoted to ready immediately,
// and the resulting pickup notification is dispatched after commit.
type CommandHandler struct {
	txRunner     circulation.TxRunner
	rules        circulation.RulesProvider
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
func NewCommandHandler(
	txRunner circulation.TxRunner,
	rules circulation.RulesProvider,
	notifier shell.Notifier,
	opts ...Option,
) CommandHandler {

	handler := CommandHandler{
		txRunner: txRunner,
		rules:    rules,
		notifier: notifier,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the reserve workflow: Load -> Decide -> Persist -> Promote.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var notifications []circulation.NotificationRequest

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		notifications = nil
		return h.executeCommand(retryCtx, command, &notifications)
	}, h.retryOptions...)

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
) error {

	rules, err := h.rules.RulesFor(command.BorrowerType)
	if err != nil {
		return err
	}

	return h.txRunner.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		bookCopy, loadErr := uow.CopyForUpdate(txCtx, command.CopyID)
		if loadErr != nil {
			return loadErr
		}

		openLoan, loadErr := uow.OpenLoanForCopy(txCtx, command.CopyID)
		if loadErr != nil {
			return loadErr
		}

		reservations, loadErr := uow.ActiveReservationsForCopy(txCtx, command.CopyID)
		if loadErr != nil {
			return loadErr
		}

		borrowerCount, loadErr := uow.ActiveReservationCountForBorrower(txCtx, command.BorrowerID)
		if loadErr != nil {
			return loadErr
		}

		state := State{
			Copy:                     bookCopy,
			OpenLoan:                 openLoan,
			ActiveReservations:       reservations,
			BorrowerReservationCount: borrowerCount,
		}

		changes, result := Decide(state, command, rules, uuid.New())
		if decideErr := result.HasError(); decideErr != nil {
			return decideErr
		}

		if persistErr := uow.InsertReservation(txCtx, changes.NewReservation); persistErr != nil {
			return persistErr
		}

		if !changes.PromoteImmediately {
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
}
