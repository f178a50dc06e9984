// Package outstandingfines implements the query that lists a borrower's
// unpaid and partially paid fines together with the total still owed.
package outstandingfines
