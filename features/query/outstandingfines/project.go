package outstandingfines

import (
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
)

// ProjectOutstandingFines implements the query logic to determine what a
// borrower still owes. This is a pure function with no side effects - it takes
// the borrower's open fine rows and returns the projected result.
//
// Query Logic:
//
//	GIVEN: A borrower with BorrowerID
//	WHEN: OutstandingFines query is executed
//	THEN: OutstandingFines struct is returned with every open fine
//	INCLUDES: unpaid and partially paid fines with their remaining balances
//	EXCLUDES: Fines that have been fully settled
func ProjectOutstandingFines(fines []circulation.Fine, query Query) OutstandingFines {
	infos := make([]FineInfo, 0, len(fines))
	totalDue := decimal.Zero

	for _, fine := range fines {
		if !fine.IsOpen() {
			continue
		}

		infos = append(infos, FineInfo{
			FineID:      fine.ID,
			LoanID:      fine.LoanID,
			Reason:      fine.Reason,
			Amount:      fine.Amount,
			AmountPaid:  fine.AmountPaid,
			BalanceDue:  fine.BalanceDue,
			Status:      fine.PaymentStatus,
			LastPayment: fine.PaymentDate,
		})

		totalDue = totalDue.Add(fine.BalanceDue)
	}

	return OutstandingFines{
		BorrowerID: query.BorrowerID,
		Fines:      infos,
		TotalDue:   totalDue,
		Count:      len(infos),
	}
}
