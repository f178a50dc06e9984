package circulation

import (
	"github.com/google/uuid"
)

// NotificationType names a user-facing message category.
type NotificationType string

const (
	NotificationReadyForPickup  NotificationType = "ready_for_pickup"
	NotificationOverdueReminder NotificationType = "overdue_reminder"
	NotificationPaymentReceived NotificationType = "payment_received"
	NotificationReservationGone NotificationType = "reservation_cancelled"
)

// NotificationPriority orders delivery of queued messages.
type NotificationPriority string

const (
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// NotificationRequest asks the external notifier to deliver one message.
// Requests are produced by the command handlers strictly after their unit of
// work committed; delivery is best-effort and never part of the atomic
// guarantee.
type NotificationRequest struct {
	BorrowerID           BorrowerIDString
	Type                 NotificationType
	Title                string
	Message              string
	RelatedLoanID        *uuid.UUID
	RelatedReservationID *uuid.UUID
	Priority             NotificationPriority
}
