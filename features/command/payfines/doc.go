// Package payfines implements the desk payment use case: one or more fines of
// a borrower are paid in a single cash transaction, each payment is validated
// against the fine's outstanding balance before anything is mutated, and a
// receipt with pre-computed totals is written as part of the same unit of
// work. Fully settling a loan-linked fine force-closes the loan and frees its
// copy for the next reservation in line.
package payfines
