// Package cancelreservation implements the Cancel Reservation command use
// case, including queue compaction and re-promotion when the cancelled
// reservation was holding the copy.
package cancelreservation
