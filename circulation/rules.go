package circulation

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnknownBorrowerType is returned by rules providers for an unconfigured borrower type.
var ErrUnknownBorrowerType = errors.New("no borrowing rules configured for borrower type")

// BorrowingRules are the per-borrower-type limits the core depends on.
// They are read-only configuration supplied by an external provider.
type BorrowingRules struct {
	MaxBooksAllowed    int
	BorrowPeriodDays   int
	MaxRenewalsAllowed int
	OverdueFinePerDay  decimal.Decimal
	ReservationLimit   int
}

// RulesProvider supplies the borrowing rules for a borrower type.
type RulesProvider interface {
	RulesFor(borrowerType BorrowerTypeString) (BorrowingRules, error)
}

// StaticRulesProvider is a fixed in-memory rules table, convenient for tests
// and for deployments that configure rules at startup.
type StaticRulesProvider struct {
	rules map[BorrowerTypeString]BorrowingRules
}

// BuildStaticRulesProvider creates a StaticRulesProvider from the given table.
func BuildStaticRulesProvider(rules map[BorrowerTypeString]BorrowingRules) StaticRulesProvider {
	return StaticRulesProvider{rules: rules}
}

// RulesFor implements RulesProvider.
func (p StaticRulesProvider) RulesFor(borrowerType BorrowerTypeString) (BorrowingRules, error) {
	rules, ok := p.rules[borrowerType]
	if !ok {
		return BorrowingRules{}, ErrUnknownBorrowerType
	}

	return rules, nil
}
