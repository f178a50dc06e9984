package circulation

import (
	"time"
)

// Instead of implementing full value objects, a few alias types and helper
// methods are used here ...

// BorrowerIDString identifies a borrower. Borrower records live outside the
// core, so only the identifier crosses the boundary.
type BorrowerIDString = string

// LibrarianIDString identifies the librarian performing a desk operation.
type LibrarianIDString = string

// BorrowerTypeString names a borrower category ("student", "teacher", ...)
// and keys the borrowing rules.
type BorrowerTypeString = string

// OccurredAtTS represents when an operation happened.
type OccurredAtTS = time.Time

// ToOccurredAt converts a time to OccurredAtTS with UTC normalization and microsecond precision.
func ToOccurredAt(t time.Time) OccurredAtTS {
	return t.UTC().Truncate(time.Microsecond)
}

// StartOfDay truncates a timestamp to its UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from one day to a
// later one, never negative.
func DaysBetween(from time.Time, until time.Time) int {
	days := int(StartOfDay(until).Sub(StartOfDay(from)).Hours() / 24)
	if days < 0 {
		return 0
	}

	return days
}
