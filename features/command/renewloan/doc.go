// Package renewloan implements the Renew Loan command use case.
package renewloan
