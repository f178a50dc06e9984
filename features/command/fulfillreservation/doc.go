// Package fulfillreservation implements the Fulfill Reservation command use
// case: checking a ready-held copy out to the borrower who reserved it.
package fulfillreservation
