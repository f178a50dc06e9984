package accrueoverduefines

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler runs the nightly overdue accrual: every open loan past its
// due date gets its overdue fine brought up to days-late times the per-day
// rate of the borrower's type. The whole day's accrual is one transaction
// guarded by a per-day marker, so a crashed or repeated run never
// double-charges.
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

// Handle executes the accrual for the command's day.
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
		alreadyRan, err := uow.AccrualRanOn(txCtx, command.Day)
		if err != nil {
			return err
		}

		if alreadyRan {
			isIdempotent = true
			return nil
		}

		overdueLoans, err := uow.OpenLoansDueBefore(txCtx, command.Day)
		if err != nil {
			return err
		}

		for _, loan := range overdueLoans {
			if err = h.accrueForLoan(txCtx, uow, loan, command.Day, notifications); err != nil {
				return err
			}
		}

		return uow.MarkAccrualRun(txCtx, command.Day)
	})

	return isIdempotent, txErr
}

func (h CommandHandler) accrueForLoan(
	ctx context.Context,
	uow circulation.UnitOfWork,
	loan circulation.Loan,
	day circulation.OccurredAtTS,
	notifications *[]circulation.NotificationRequest,
) error {

	rules, err := h.rules.RulesFor(loan.BorrowerType)
	if err != nil {
		return err
	}

	existingFine, err := uow.OpenFineForLoan(ctx, loan.ID, circulation.FineReasonOverdue)
	if err != nil {
		return err
	}

	assessment, changed := AssessLoan(loan, existingFine, rules, day, uuid.New())
	if !changed {
		return nil
	}

	if assessment.FineIsNew {
		err = uow.InsertFine(ctx, assessment.Fine)
	} else {
		err = uow.UpdateFine(ctx, assessment.Fine)
	}

	if err != nil {
		return err
	}

	if err = uow.UpdateLoan(ctx, assessment.UpdatedLoan); err != nil {
		return err
	}

	notification, err := buildReminder(ctx, uow, assessment)
	if err != nil {
		return err
	}

	*notifications = append(*notifications, notification)

	return nil
}

func buildReminder(
	ctx context.Context,
	uow circulation.UnitOfWork,
	assessment LoanAssessment,
) (circulation.NotificationRequest, error) {

	title := "a borrowed book"
	bookCopy, err := uow.CopyByID(ctx, assessment.UpdatedLoan.CopyID)
	if err != nil && !errors.Is(err, circulation.ErrNotFound) {
		return circulation.NotificationRequest{}, err
	}
	if err == nil {
		title = bookCopy.Title
	}

	loanID := assessment.UpdatedLoan.ID

	return circulation.NotificationRequest{
		BorrowerID: assessment.UpdatedLoan.BorrowerID,
		Type:       circulation.NotificationOverdueReminder,
		Title:      "Overdue reminder",
		Message: fmt.Sprintf("%q is %d day(s) overdue, the fine so far is %s.",
			title, assessment.DaysOverdue, assessment.Fine.BalanceDue.StringFixed(2)),
		RelatedLoanID: &loanID,
		Priority:      circulation.PriorityNormal,
	}, nil
}
