package circulation

import (
	"errors"
)

// ErrStorageFailure is joined onto any unexpected infrastructure fault (I/O,
// lock timeout, scan failure). Handlers abort and roll back on it just like on
// a business violation, but callers can tell the two apart.
var ErrStorageFailure = errors.New("storage failure")

// ErrConcurrencyConflict signals that a transaction lost a race (serialization
// failure or deadlock) and may be retried by the caller.
var ErrConcurrencyConflict = errors.New("concurrency conflict, transaction was not applied")

// ErrorKind identifies a business-rule violation.
type ErrorKind string

const (
	KindCopyUnavailable          ErrorKind = "CopyUnavailable"
	KindBorrowLimitExceeded      ErrorKind = "BorrowLimitExceeded"
	KindRenewalLimitExceeded     ErrorKind = "RenewalLimitExceeded"
	KindReservationPending       ErrorKind = "ReservationPending"
	KindLoanOverdue              ErrorKind = "LoanOverdue"
	KindLoanNotOpen              ErrorKind = "LoanNotOpen"
	KindAlreadyReserved          ErrorKind = "AlreadyReserved"
	KindAlreadyBorrowedByUser    ErrorKind = "AlreadyBorrowedByUser"
	KindReservationLimitExceeded ErrorKind = "ReservationLimitExceeded"
	KindReservationNotReady      ErrorKind = "ReservationNotReady"
	KindReservationNotActive     ErrorKind = "ReservationNotActive"
	KindNoFinesSelected          ErrorKind = "NoFinesSelected"
	KindInsufficientCash         ErrorKind = "InsufficientCash"
	KindAmountExceedsBalance     ErrorKind = "AmountExceedsBalance"
	KindMixedBorrowerSelection   ErrorKind = "MixedBorrowerSelection"
)

// BusinessRuleError is a recoverable violation of a circulation rule. The unit
// of work it occurred in is rolled back completely and the error is surfaced
// to the caller as kind plus human-readable message.
type BusinessRuleError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e BusinessRuleError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// BuildBusinessRuleError creates a BusinessRuleError with the given kind and message.
func BuildBusinessRuleError(kind ErrorKind, message string) BusinessRuleError {
	return BusinessRuleError{Kind: kind, Message: message}
}

// AsBusinessRuleError unwraps err into a BusinessRuleError if it is one.
func AsBusinessRuleError(err error) (BusinessRuleError, bool) {
	var bre BusinessRuleError
	if errors.As(err, &bre) {
		return bre, true
	}

	return BusinessRuleError{}, false
}
