package issueletter

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/core"
)

// State carries the fines to list, in command order, plus the replacement
// price of the affected copy per fine where one is on record.
type State struct {
	Fines             []circulation.Fine
	ReplacementPrices map[uuid.UUID]decimal.Decimal
}

// Changes holds the letter to append. Issuing a letter never mutates a fine.
type Changes struct {
	Letter circulation.Letter
}

// Decide composes the letter. The display amount of a lost or damage fine is
// the copy's replacement price when one is on record; all other lines show
// the outstanding balance, falling back to the assessed amount once a fine is
// settled so a billing notice never prints a zero.
func Decide(s State, command Command, newLetterID uuid.UUID) (Changes, core.DecisionResult) {
	if len(command.FineIDs) == 0 {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindNoFinesSelected, "at least one fine must be selected for the letter"))
	}

	lines := make([]circulation.LetterLine, 0, len(s.Fines))
	for _, fine := range s.Fines {
		lines = append(lines, circulation.LetterLine{
			FineID:        fine.ID,
			Reason:        fine.Reason,
			DisplayAmount: displayAmount(fine, s.ReplacementPrices),
		})
	}

	changes := Changes{
		Letter: circulation.Letter{
			ID:           newLetterID,
			LetterNumber: circulation.BuildLetterNumber(newLetterID, command.OccurredAt),
			BorrowerID:   command.BorrowerID,
			Type:         command.Type,
			Lines:        lines,
			IssuedAt:     command.OccurredAt,
		},
	}

	return changes, core.SuccessDecision()
}

func displayAmount(fine circulation.Fine, replacementPrices map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	if fine.Reason == circulation.FineReasonLost || fine.Reason == circulation.FineReasonDamage {
		if price, ok := replacementPrices[fine.ID]; ok {
			return price
		}
	}

	if fine.BalanceDue.IsZero() {
		return fine.Amount
	}

	return fine.BalanceDue
}
