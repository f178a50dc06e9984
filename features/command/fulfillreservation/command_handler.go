package fulfillreservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler orchestrates the fulfillment workflow inside one transaction:
// the reservation leaves the queue, positions compact, a loan opens, and the
// copy moves from reserved to borrowed.
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

// Handle executes the fulfillment workflow: Load -> Decide -> Persist.
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
	rules, err := h.rules.RulesFor(command.BorrowerType)
	if err != nil {
		return false, err
	}

	isIdempotent := false

	txErr := h.txRunner.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		reservation, loadErr := uow.ReservationForUpdate(txCtx, command.ReservationID)
		if loadErr != nil {
			return loadErr
		}

		if _, loadErr = uow.CopyForUpdate(txCtx, reservation.CopyID); loadErr != nil {
			return loadErr
		}

		reservations, loadErr := uow.ActiveReservationsForCopy(txCtx, reservation.CopyID)
		if loadErr != nil {
			return loadErr
		}

		loanCount, loadErr := uow.OpenLoanCountForBorrower(txCtx, reservation.BorrowerID)
		if loadErr != nil {
			return loadErr
		}

		state := State{
			Reservation:   reservation,
			OpenLoanCount: loanCount,
		}

		changes, result := Decide(state, command, rules, uuid.New())
		if decideErr := result.HasError(); decideErr != nil {
			return decideErr
		}

		if !result.HasChangesToPersist() {
			isIdempotent = true
			return nil
		}

		if persistErr := shell.RemoveFromQueue(txCtx, uow, changes.FulfilledReservation, reservations); persistErr != nil {
			return persistErr
		}

		if persistErr := uow.InsertLoan(txCtx, changes.NewLoan); persistErr != nil {
			return persistErr
		}

		return uow.UpdateCopyStatus(txCtx, reservation.CopyID, circulation.CopyStatusBorrowed)
	})

	return isIdempotent, txErr
}
