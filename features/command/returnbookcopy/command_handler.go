package returnbookcopy

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler orchestrates the return workflow: it closes the loan, accrues
// the overdue fine if one is due, and hands the freed copy to the reservation
// queue, all inside one transaction. Notifications produced by the promotion
// are dispatched strictly after commit.
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

// Handle executes the return workflow: Load -> Decide -> Persist -> Promote.
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
		loan, err := uow.LoanForUpdate(txCtx, command.LoanID)
		if err != nil {
			return err
		}

		bookCopy, err := uow.CopyForUpdate(txCtx, loan.CopyID)
		if err != nil {
			return err
		}

		rules, err := h.rules.RulesFor(loan.BorrowerType)
		if err != nil {
			return err
		}

		openFine, err := uow.OpenFineForLoan(txCtx, loan.ID, circulation.FineReasonOverdue)
		if err != nil {
			return err
		}

		state := State{
			Loan:            loan,
			OpenOverdueFine: openFine,
		}

		changes, result := Decide(state, command, rules, uuid.New())
		if decideErr := result.HasError(); decideErr != nil {
			return decideErr
		}

		if !result.HasChangesToPersist() {
			isIdempotent = true
			return nil
		}

		if err = uow.UpdateLoan(txCtx, changes.UpdatedLoan); err != nil {
			return err
		}

		if changes.Fine != nil {
			if changes.FineIsNew {
				err = uow.InsertFine(txCtx, *changes.Fine)
			} else {
				err = uow.UpdateFine(txCtx, *changes.Fine)
			}

			if err != nil {
				return err
			}
		}

		notification, err := shell.PromoteCopy(txCtx, uow, bookCopy, command.OccurredAt)
		if err != nil {
			return err
		}

		if notification != nil {
			*notifications = append(*notifications, *notification)
		}

		return nil
	})

	return isIdempotent, txErr
}
