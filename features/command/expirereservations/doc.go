// Package expirereservations implements the sweep that expires ready
// reservations whose 48-hour pickup window has elapsed and hands the copies
// to the next borrowers in line.
package expirereservations
