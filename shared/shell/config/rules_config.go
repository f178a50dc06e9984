package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
)

// ErrNoBorrowerTypes is returned when a rules file defines no borrower types.
var ErrNoBorrowerTypes = errors.New("rules file must define at least one borrower type")

// borrowingRulesFile mirrors the TOML layout of a borrowing rules file:
//
//	[borrower.student]
//	max_books_allowed = 5
//	borrow_period_days = 14
//	max_renewals_allowed = 2
//	overdue_fine_per_day = "0.50"
//	reservation_limit = 3
type borrowingRulesFile struct {
	Borrower map[string]borrowingRulesEntry `toml:"borrower"`
}

type borrowingRulesEntry struct {
	MaxBooksAllowed    int    `toml:"max_books_allowed"`
	BorrowPeriodDays   int    `toml:"borrow_period_days"`
	MaxRenewalsAllowed int    `toml:"max_renewals_allowed"`
	OverdueFinePerDay  string `toml:"overdue_fine_per_day"`
	ReservationLimit   int    `toml:"reservation_limit"`
}

// LoadBorrowingRules reads a TOML rules file and returns a rules provider
// backed by its contents.
func LoadBorrowingRules(path string) (circulation.StaticRulesProvider, error) {
	var file borrowingRulesFile

	if _, err := toml.DecodeFile(path, &file); err != nil {
		return circulation.StaticRulesProvider{}, fmt.Errorf("decoding rules file %s: %w", path, err)
	}

	return buildRulesProvider(file)
}

// ParseBorrowingRules parses TOML rules from a string, mainly for tests.
func ParseBorrowingRules(data string) (circulation.StaticRulesProvider, error) {
	var file borrowingRulesFile

	if _, err := toml.Decode(data, &file); err != nil {
		return circulation.StaticRulesProvider{}, fmt.Errorf("decoding rules: %w", err)
	}

	return buildRulesProvider(file)
}

func buildRulesProvider(file borrowingRulesFile) (circulation.StaticRulesProvider, error) {
	if len(file.Borrower) == 0 {
		return circulation.StaticRulesProvider{}, ErrNoBorrowerTypes
	}

	rules := make(map[circulation.BorrowerTypeString]circulation.BorrowingRules, len(file.Borrower))

	for borrowerType, entry := range file.Borrower {
		finePerDay, err := decimal.NewFromString(entry.OverdueFinePerDay)
		if err != nil {
			return circulation.StaticRulesProvider{}, fmt.Errorf(
				"invalid overdue_fine_per_day for borrower type %s: %w", borrowerType, err)
		}

		if entry.MaxBooksAllowed <= 0 || entry.BorrowPeriodDays <= 0 {
			return circulation.StaticRulesProvider{}, fmt.Errorf(
				"borrower type %s needs positive max_books_allowed and borrow_period_days", borrowerType)
		}

		rules[circulation.BorrowerTypeString(borrowerType)] = circulation.BorrowingRules{
			MaxBooksAllowed:    entry.MaxBooksAllowed,
			BorrowPeriodDays:   entry.BorrowPeriodDays,
			MaxRenewalsAllowed: entry.MaxRenewalsAllowed,
			OverdueFinePerDay:  finePerDay,
			ReservationLimit:   entry.ReservationLimit,
		}
	}

	return circulation.BuildStaticRulesProvider(rules), nil
}
