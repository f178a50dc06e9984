package checkoutbookcopy

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler orchestrates the checkout workflow: it loads the affected
// rows under locks, delegates the decision to the pure core function, and
// persists all resulting changes in one transaction.
type CommandHandler struct {
	txRunner     circulation.TxRunner
	rules        circulation.RulesProvider
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
func NewCommandHandler(txRunner circulation.TxRunner, rules circulation.RulesProvider, opts ...Option) CommandHandler {
	handler := CommandHandler{
		txRunner: txRunner,
		rules:    rules,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the checkout workflow: Load -> Decide -> Persist.
// It retries on row lock contention and returns an explicit HandlerResult.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var isIdempotent bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		idempotent, execErr := h.executeCommand(retryCtx, command)
		isIdempotent = idempotent

		return execErr
	}, h.retryOptions...)

	if isIdempotent {
		return shell.NewIdempotentResult(retryMetrics), err
	}

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the transactional logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	rules, err := h.rules.RulesFor(command.BorrowerType)
	if err != nil {
		return false, err
	}

	isIdempotent := false

	txErr := h.txRunner.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
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

		loanCount, loadErr := uow.OpenLoanCountForBorrower(txCtx, command.BorrowerID)
		if loadErr != nil {
			return loadErr
		}

		state := State{
			Copy:               bookCopy,
			OpenLoan:           openLoan,
			ActiveReservations: reservations,
			OpenLoanCount:      loanCount,
		}

		changes, result := Decide(state, command, rules, uuid.New())
		if decideErr := result.HasError(); decideErr != nil {
			return decideErr
		}

		if !result.HasChangesToPersist() {
			isIdempotent = true
			return nil
		}

		if persistErr := uow.InsertLoan(txCtx, changes.NewLoan); persistErr != nil {
			return persistErr
		}

		if changes.FulfilledReservation != nil {
			if persistErr := shell.RemoveFromQueue(txCtx, uow, *changes.FulfilledReservation, reservations); persistErr != nil {
				return persistErr
			}
		}

		return uow.UpdateCopyStatus(txCtx, command.CopyID, circulation.CopyStatusBorrowed)
	})

	return isIdempotent, txErr
}
