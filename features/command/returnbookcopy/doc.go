// Package returnbookcopy implements the Return Book Copy command use case:
// closing the loan, accruing the overdue fine, and promoting the next
// reservation in line for the freed copy.
package returnbookcopy
