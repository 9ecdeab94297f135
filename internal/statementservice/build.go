package statementservice

import (
	"cmp"
	"slices"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Build derives the statement of one account from log records.
//
// Records are deduplicated by id, records the account is not a party to are
// dropped, and every remaining record is labelled from the account's side:
// the sender of a transfer sees a debit, the recipient a credit. Lines are
// ordered by timestamp, then by log seq. Build is pure, so the same records
// always give the same statement.
func Build(accountID string, records []domain.Transaction) []domain.StatementLine {
	seen := make(map[string]struct{}, len(records))
	lines := make([]domain.StatementLine, 0, len(records))

	for _, t := range records {
		if _, dup := seen[t.ID]; dup {
			continue
		}

		seen[t.ID] = struct{}{}

		line, ok := lineFor(accountID, t)
		if !ok {
			continue
		}

		lines = append(lines, line)
	}

	slices.SortStableFunc(lines, func(a, b domain.StatementLine) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}

		return cmp.Compare(a.Seq, b.Seq)
	})

	return lines
}

func lineFor(accountID string, t domain.Transaction) (domain.StatementLine, bool) {
	if accountID == domain.External || !t.Involves(accountID) {
		return domain.StatementLine{}, false
	}

	line := domain.StatementLine{
		TransactionID: t.ID,
		Amount:        t.Amount,
		Method:        t.Method,
		Date:          t.Date(),
		Time:          t.Time(),
		Timestamp:     t.CreatedAt,
		Seq:           t.Seq,
	}

	if t.Source == accountID {
		line.Direction = domain.DirectionDebit
		line.Counterparty = t.Destination
		line.BalanceAfter = decimal.NewNullDecimal(t.ResultingBalance)

		return line, true
	}

	line.Direction = domain.DirectionCredit
	line.Counterparty = t.Source

	if t.Kind == domain.KindTransfer {
		line.BalanceAfter = t.CounterpartyBalance
	} else {
		line.BalanceAfter = decimal.NewNullDecimal(t.ResultingBalance)
	}

	return line, true
}

// Filter keeps the lines whose timestamp falls within the period.
func Filter(lines []domain.StatementLine, p domain.Period) []domain.StatementLine {
	if p.IsZero() {
		return lines
	}

	out := make([]domain.StatementLine, 0, len(lines))

	for _, line := range lines {
		if p.Contains(line.Timestamp) {
			out = append(out, line)
		}
	}

	return out
}
