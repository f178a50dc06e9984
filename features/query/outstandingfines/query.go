package outstandingfines

import (
	"github.com/campuslib/circulation-go/circulation"
)

const (
	queryType = "OutstandingFines"
)

// Query represents the intent to list a borrower's unpaid and partially paid fines.
type Query struct {
	BorrowerID circulation.BorrowerIDString
}

// BuildQuery creates a new Query with the provided borrower ID.
func BuildQuery(borrowerID circulation.BorrowerIDString) Query {
	return Query{
		BorrowerID: borrowerID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
