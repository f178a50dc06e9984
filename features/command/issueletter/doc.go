// Package issueletter implements issuing printed notices (overdue, final and
// billing letters) that list a borrower's fines. Letters are append-only audit
// records with display amounts computed once at issue time; issuing one never
// changes what is owed.
package issueletter
