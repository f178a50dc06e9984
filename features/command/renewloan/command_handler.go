package renewloan

import (
	"context"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler orchestrates the renewal workflow inside one transaction.
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

// Handle executes the renewal workflow: Load -> Decide -> Persist.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.executeCommand(retryCtx, command)
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) error {
	return h.txRunner.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		loan, err := uow.LoanForUpdate(txCtx, command.LoanID)
		if err != nil {
			return err
		}

		rules, err := h.rules.RulesFor(loan.BorrowerType)
		if err != nil {
			return err
		}

		reservations, err := uow.ActiveReservationsForCopy(txCtx, loan.CopyID)
		if err != nil {
			return err
		}

		state := State{
			Loan:                   loan,
			ActiveReservationCount: len(reservations),
		}

		changes, result := Decide(state, command, rules)
		if decideErr := result.HasError(); decideErr != nil {
			return decideErr
		}

		return uow.UpdateLoan(txCtx, changes.UpdatedLoan)
	})
}
