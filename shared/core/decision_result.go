package core

import "github.com/campuslib/circulation-go/circulation"

// DecisionResult represents the outcome of a business decision in a Decide function.
// This enables type-safe, functional programming style decision modeling.
//
// IMPORTANT: DecisionResult should only be constructed using the provided factory
// methods: IdempotentDecision(), SuccessDecision(notifications...), or
// ErrorDecision(err). Do not construct DecisionResult directly.
type DecisionResult struct {
	Outcome       string // "idempotent", "success", or "error"
	Notifications []circulation.NotificationRequest
	Err           error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision() DecisionResult {
	return DecisionResult{
		Outcome: idempotentOutcome,
	}
}

// SuccessDecision creates a DecisionResult indicating a successful state change,
// optionally carrying notification requests to dispatch after commit.
func SuccessDecision(notifications ...circulation.NotificationRequest) DecisionResult {
	return DecisionResult{
		Outcome:       successOutcome,
		Notifications: notifications,
	}
}

// ErrorDecision creates a DecisionResult indicating a business rule violation.
func ErrorDecision(err error) DecisionResult {
	return DecisionResult{
		Outcome: errorOutcome,
		Err:     err,
	}
}

// HasChangesToPersist returns true if the decision produced state changes
// that must be written within the current transaction.
func (r DecisionResult) HasChangesToPersist() bool {
	return r.Outcome == successOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}
