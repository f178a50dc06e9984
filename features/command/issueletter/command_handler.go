package issueletter

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler composes and appends a letter. Fines are only read, never
// mutated, so plain lookups are enough and no row locks are taken.
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

// Handle executes the letter workflow: Load -> Decide -> Persist.
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
		state, err := loadState(txCtx, uow, command)
		if err != nil {
			return err
		}

		changes, result := Decide(state, command, uuid.New())
		if decideErr := result.HasError(); decideErr != nil {
			return decideErr
		}

		return uow.InsertLetter(txCtx, changes.Letter)
	})
}

func loadState(ctx context.Context, uow circulation.UnitOfWork, command Command) (State, error) {
	state := State{
		Fines:             make([]circulation.Fine, 0, len(command.FineIDs)),
		ReplacementPrices: make(map[uuid.UUID]decimal.Decimal),
	}

	for _, fineID := range command.FineIDs {
		fine, err := uow.FineByID(ctx, fineID)
		if err != nil {
			return State{}, err
		}

		state.Fines = append(state.Fines, fine)

		price, err := replacementPriceFor(ctx, uow, fine)
		if err != nil {
			return State{}, err
		}

		if price != nil {
			state.ReplacementPrices[fine.ID] = *price
		}
	}

	return state, nil
}

func replacementPriceFor(
	ctx context.Context,
	uow circulation.UnitOfWork,
	fine circulation.Fine,
) (*decimal.Decimal, error) {

	if fine.LoanID == nil {
		return nil, nil
	}

	if fine.Reason != circulation.FineReasonLost && fine.Reason != circulation.FineReasonDamage {
		return nil, nil
	}

	loan, err := uow.LoanByID(ctx, *fine.LoanID)
	if err != nil {
		if errors.Is(err, circulation.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	bookCopy, err := uow.CopyByID(ctx, loan.CopyID)
	if err != nil {
		if errors.Is(err, circulation.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return bookCopy.ReplacementPrice, nil
}
