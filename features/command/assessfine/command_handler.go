package assessfine

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler orchestrates a manual fine assessment at the desk, for
// example billing a lost book or charging for damage noticed on return.
type CommandHandler struct {
	txRunner     circulation.TxRunner
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
func NewCommandHandler(txRunner circulation.TxRunner, opts ...Option) CommandHandler {
	handler := CommandHandler{
		txRunner: txRunner,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the assessment workflow: Load -> Decide -> Persist.
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

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	isIdempotent := false

	txErr := h.txRunner.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		state := State{}

		if command.LoanID != nil {
			loan, err := uow.LoanForUpdate(txCtx, *command.LoanID)
			if err != nil {
				return err
			}

			state.Loan = &loan

			existing, err := uow.OpenFineForLoan(txCtx, loan.ID, command.Reason)
			if err != nil {
				return err
			}

			state.ExistingFine = existing
		}

		changes, result := Decide(state, command, uuid.New())
		if decideErr := result.HasError(); decideErr != nil {
			return decideErr
		}

		if !result.HasChangesToPersist() {
			isIdempotent = true
			return nil
		}

		var err error
		if changes.FineIsNew {
			err = uow.InsertFine(txCtx, changes.Fine)
		} else {
			err = uow.UpdateFine(txCtx, changes.Fine)
		}

		if err != nil {
			return err
		}

		if changes.UpdatedLoan != nil {
			if err = uow.UpdateLoan(txCtx, *changes.UpdatedLoan); err != nil {
				return err
			}
		}

		return nil
	})

	return isIdempotent, txErr
}
