// Package assessfine implements manual fine assessment: a librarian charges a
// borrower for an overdue, lost or damaged copy. Re-assessing an open fine for
// the same loan and reason updates it in place instead of creating a
// duplicate.
package assessfine
