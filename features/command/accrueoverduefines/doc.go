// Package accrueoverduefines implements the nightly batch that brings every
// overdue loan's fine up to date and sends the borrowers an overdue reminder.
// One run covers one calendar day and is idempotent per day.
package accrueoverduefines
