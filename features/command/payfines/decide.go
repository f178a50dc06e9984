package payfines

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campuslib/circulation-go/circulation"
	"github.com/campuslib/circulation-go/shared/core"
)

// State carries the locked fine rows, in the same order as the command lines.
type State struct {
	Fines []circulation.Fine
}

// Changes describes the ledger mutations a successful payment produces.
// UpdatedFines holds one entry per distinct fine with all payments of this
// transaction applied. SettledLoanIDs lists the loans whose overdue fine was
// fully settled and which therefore get force-closed by the handler.
type Changes struct {
	UpdatedFines   []circulation.Fine
	SettledLoanIDs []uuid.UUID
	Receipt        circulation.Receipt
}

// Decide validates the whole payment before touching any fine: the selection
// must be non-empty and belong to a single borrower, the cash tendered must
// cover the sum of the per-fine amounts, and no single amount may exceed that
// fine's outstanding balance.
// Only when every line passes are the payments applied, so a rejected payment
// leaves the ledger exactly as it was.
func Decide(s State, command Command, receiptID uuid.UUID) (Changes, core.DecisionResult) {
	if len(command.Lines) == 0 {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindNoFinesSelected, "at least one fine must be selected for payment"))
	}

	if len(s.Fines) != len(command.Lines) {
		return Changes{}, core.ErrorDecision(fmt.Errorf("state carries %d fines for %d payment lines",
			len(s.Fines), len(command.Lines)))
	}

	// One receipt belongs to one borrower, so the selection must not mix them.
	for _, fine := range s.Fines[1:] {
		if fine.BorrowerID != s.Fines[0].BorrowerID {
			return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
				circulation.KindMixedBorrowerSelection,
				"all fines in one payment must belong to the same borrower"))
		}
	}

	total := command.TotalTendered()
	if command.CashReceived.LessThan(total) {
		return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
			circulation.KindInsufficientCash,
			fmt.Sprintf("cash received %s does not cover payment total %s",
				command.CashReceived.StringFixed(2), total.StringFixed(2))))
	}

	running := make(map[uuid.UUID]circulation.Fine, len(s.Fines))
	order := make([]uuid.UUID, 0, len(s.Fines))
	for _, fine := range s.Fines {
		if _, seen := running[fine.ID]; !seen {
			running[fine.ID] = fine
			order = append(order, fine.ID)
		}
	}

	// Balances are tracked across lines so the same fine selected twice in one
	// transaction validates its second line against the remainder left by the
	// first, not against the stored row.
	balances := make(map[uuid.UUID]decimal.Decimal, len(running))
	for fineID, fine := range running {
		balances[fineID] = fine.BalanceDue
	}

	for _, line := range command.Lines {
		if !line.Amount.GreaterThan(decimal.Zero) {
			return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
				circulation.KindAmountExceedsBalance,
				fmt.Sprintf("payment amount for fine %s must be positive", line.FineID)))
		}

		if line.Amount.GreaterThan(balances[line.FineID]) {
			return Changes{}, core.ErrorDecision(circulation.BuildBusinessRuleError(
				circulation.KindAmountExceedsBalance,
				fmt.Sprintf("payment of %s exceeds balance %s on fine %s",
					line.Amount.StringFixed(2), balances[line.FineID].StringFixed(2), line.FineID)))
		}

		balances[line.FineID] = balances[line.FineID].Sub(line.Amount)
	}

	return applyPayments(s, command, receiptID, running, order)
}

func applyPayments(
	s State,
	command Command,
	receiptID uuid.UUID,
	running map[uuid.UUID]circulation.Fine,
	order []uuid.UUID,
) (Changes, core.DecisionResult) {

	lines := make([]circulation.ReceiptLine, 0, len(command.Lines))

	for _, line := range command.Lines {
		paid := running[line.FineID].ApplyPayment(line.Amount, command.CollectedBy, command.OccurredAt)
		running[line.FineID] = paid

		lines = append(lines, circulation.ReceiptLine{
			FineID:       paid.ID,
			Reason:       paid.Reason,
			AmountPaid:   line.Amount,
			BalanceAfter: paid.BalanceDue,
		})
	}

	changes := Changes{
		UpdatedFines: make([]circulation.Fine, 0, len(order)),
	}

	for _, fineID := range order {
		fine := running[fineID]
		changes.UpdatedFines = append(changes.UpdatedFines, fine)

		if fine.IsSettled() && fine.LoanID != nil {
			changes.SettledLoanIDs = append(changes.SettledLoanIDs, *fine.LoanID)
		}
	}

	total := command.TotalTendered()
	borrowerID := s.Fines[0].BorrowerID

	changes.Receipt = circulation.Receipt{
		ID:            receiptID,
		ReceiptNumber: circulation.BuildReceiptNumber(receiptID, command.OccurredAt),
		BorrowerID:    borrowerID,
		CollectedBy:   command.CollectedBy,
		TotalPaid:     total,
		CashReceived:  command.CashReceived,
		ChangeGiven:   command.CashReceived.Sub(total),
		Lines:         lines,
		IssuedAt:      command.OccurredAt,
	}

	notification := circulation.NotificationRequest{
		BorrowerID: borrowerID,
		Type:       circulation.NotificationPaymentReceived,
		Title:      "Payment received",
		Message: fmt.Sprintf("Payment of %s received, receipt %s.",
			total.StringFixed(2), changes.Receipt.ReceiptNumber),
		Priority: circulation.PriorityNormal,
	}

	return changes, core.SuccessDecision(notification)
}
