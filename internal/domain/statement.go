package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a movement as seen by the statement viewer.
type Direction string

// Directions.
const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// StatementLine is one transaction as seen from one account.
type StatementLine struct {
	TransactionID string              `json:"transaction_id"`
	Direction     Direction           `json:"direction"`
	Counterparty  string              `json:"counterparty"`
	Amount        decimal.Decimal     `json:"amount"`
	BalanceAfter  decimal.NullDecimal `json:"balance_after"`
	Method        string              `json:"method"`
	Date          string              `json:"date"`
	Time          string              `json:"time"`
	Timestamp     time.Time           `json:"timestamp"`
	Seq           int64               `json:"-"`
}

// Period is an inclusive range of calendar days. The zero Period selects everything.
type Period struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the period selects the whole history.
func (p Period) IsZero() bool {
	return p.From.IsZero() && p.To.IsZero()
}

// Validate checks that the period does not end before it starts.
func (p Period) Validate() error {
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return ErrInvalidPeriod
	}

	return nil
}

// Contains reports whether the instant falls within the period.
// From starts at 00:00:00 and To ends at 23:59:59 of their UTC days.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()

	if !p.From.IsZero() {
		y, m, d := p.From.UTC().Date()
		if t.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			return false
		}
	}

	if !p.To.IsZero() {
		y, m, d := p.To.UTC().Date()
		if !t.Before(time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)) {
			return false
		}
	}

	return true
}
