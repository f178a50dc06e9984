package payfines

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler orchestrates a desk payment: it applies the tendered amounts
// to the selected fines, force-closes any loan whose overdue fine is now fully
// settled, hands the freed copies to their reservation queues and writes the
// receipt, all inside one transaction. Either every one of those mutations
// commits or none does.
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
func NewCommandHandler(
	txRunner circulation.TxRunner,
	notifier shell.Notifier,
	opts ...Option,
) CommandHandler {

	handler := CommandHandler{
		txRunner: txRunner,
		notifier: notifier,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the payment workflow: Load -> Decide -> Persist -> Promote.
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

	return h.txRunner.WithinTx(ctx, func(txCtx context.Context, uow circulation.UnitOfWork) error {
		fines, err := lockFines(txCtx, uow, command)
		if err != nil {
			return err
		}

		changes, result := Decide(State{Fines: fines}, command, uuid.New())
		if decideErr := result.HasError(); decideErr != nil {
			return decideErr
		}

		for _, fine := range changes.UpdatedFines {
			if err = uow.UpdateFine(txCtx, fine); err != nil {
				return err
			}

			if err = h.refreshLoanMirror(txCtx, uow, fine); err != nil {
				return err
			}
		}

		for _, loanID := range changes.SettledLoanIDs {
			if err = h.closeSettledLoan(txCtx, uow, loanID, command, notifications); err != nil {
				return err
			}
		}

		if err = uow.InsertReceipt(txCtx, changes.Receipt); err != nil {
			return err
		}

		*notifications = append(*notifications, result.Notifications...)

		return nil
	})
}

// lockFines acquires the fine rows in ascending ID order so two concurrent
// payments selecting overlapping fines always lock in the same order. The
// returned slice matches the command line order.
func lockFines(
	ctx context.Context,
	uow circulation.UnitOfWork,
	command Command,
) ([]circulation.Fine, error) {

	distinct := make([]uuid.UUID, 0, len(command.Lines))
	seen := make(map[uuid.UUID]bool, len(command.Lines))
	for _, line := range command.Lines {
		if !seen[line.FineID] {
			seen[line.FineID] = true
			distinct = append(distinct, line.FineID)
		}
	}

	sort.Slice(distinct, func(i, j int) bool {
		return distinct[i].String() < distinct[j].String()
	})

	locked := make(map[uuid.UUID]circulation.Fine, len(distinct))
	for _, fineID := range distinct {
		fine, err := uow.FineForUpdate(ctx, fineID)
		if err != nil {
			return nil, err
		}

		locked[fineID] = fine
	}

	fines := make([]circulation.Fine, 0, len(command.Lines))
	for _, line := range command.Lines {
		fines = append(fines, locked[line.FineID])
	}

	return fines, nil
}

// refreshLoanMirror keeps the loan-side fine display in step with the balance
// after a partial payment. The mirror tracks only the overdue fine; a lost or
// damage fine on the same loan never writes it. Settled fines are skipped
// here, closeSettledLoan covers them together with the forced close.
func (h CommandHandler) refreshLoanMirror(
	ctx context.Context,
	uow circulation.UnitOfWork,
	fine circulation.Fine,
) error {

	if fine.LoanID == nil || fine.Reason != circulation.FineReasonOverdue || fine.IsSettled() {
		return nil
	}

	loan, err := uow.LoanForUpdate(ctx, *fine.LoanID)
	if err != nil {
		return err
	}

	loan.FineAmount = fine.BalanceDue

	return uow.UpdateLoan(ctx, loan)
}

// closeSettledLoan zeroes the denormalized fine mirror on the loan and, if the
// loan is still open, closes it and frees its copy to the reservation queue.
// Paying off a lost-book fine without the copy ever coming back is the main
// path through here.
func (h CommandHandler) closeSettledLoan(
	ctx context.Context,
	uow circulation.UnitOfWork,
	loanID uuid.UUID,
	command Command,
	notifications *[]circulation.NotificationRequest,
) error {

	loan, err := uow.LoanForUpdate(ctx, loanID)
	if err != nil {
		return err
	}

	loan.FineAmount = decimal.Zero

	if !loan.IsOpen() {
		return uow.UpdateLoan(ctx, loan)
	}

	bookCopy, err := uow.CopyForUpdate(ctx, loan.CopyID)
	if err != nil {
		return err
	}

	returnedAt := circulation.StartOfDay(command.OccurredAt)
	loan.Status = circulation.LoanStatusReturned
	loan.ReturnDate = &returnedAt

	if err = uow.UpdateLoan(ctx, loan); err != nil {
		return err
	}

	notification, err := shell.PromoteCopy(ctx, uow, bookCopy, command.OccurredAt)
	if err != nil {
		return err
	}

	if notification != nil {
		*notifications = append(*notifications, *notification)
	}

	return nil
}
