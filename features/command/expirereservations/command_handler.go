package expirereservations

import (
	"context"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/shell"
)

// CommandHandler expires ready reservations whose pickup window elapsed: each
// one leaves its queue, the positions behind it close up and the copy is
// handed to the next borrower in line, or released if nobody is waiting.
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

// Handle executes the expiry sweep for the command's point in time.
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
		expired, err := uow.ReadyReservationsPastDeadline(txCtx, command.Now)
		if err != nil {
			return err
		}

		for _, candidate := range expired {
			if err = h.expireOne(txCtx, uow, candidate, command, notifications); err != nil {
				return err
			}
		}

		return nil
	})
}

func (h CommandHandler) expireOne(
	ctx context.Context,
	uow circulation.UnitOfWork,
	candidate circulation.Reservation,
	command Command,
	notifications *[]circulation.NotificationRequest,
) error {

	reservation, err := uow.ReservationForUpdate(ctx, candidate.ID)
	if err != nil {
		return err
	}

	bookCopy, err := uow.CopyForUpdate(ctx, reservation.CopyID)
	if err != nil {
		return err
	}

	activeReservations, err := uow.ActiveReservationsForCopy(ctx, reservation.CopyID)
	if err != nil {
		return err
	}

	expired, ok := ExpireReservation(reservation, command.Now)
	if !ok {
		return nil
	}

	if err = shell.RemoveFromQueue(ctx, uow, expired, activeReservations); err != nil {
		return err
	}

	notification, err := shell.PromoteCopy(ctx, uow, bookCopy, command.Now)
	if err != nil {
		return err
	}

	if notification != nil {
		*notifications = append(*notifications, *notification)
	}

	reservationID := expired.ID
	*notifications = append(*notifications, circulation.NotificationRequest{
		BorrowerID: expired.BorrowerID,
		Type:       circulation.NotificationReservationGone,
		Title:      "Reservation expired",
		Message: "Your reserved book was not picked up within the pickup window" +
			" and the reservation has expired.",
		RelatedReservationID: &reservationID,
		Priority:             circulation.PriorityNormal,
	})

	return nil
}
