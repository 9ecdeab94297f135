package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// External is the placeholder endpoint for money entering or leaving the ledger.
const External = "EXTERNAL"

// TransactionKind is the movement kind of a transaction record.
type TransactionKind string

// Transaction kinds.
const (
	KindCredit   TransactionKind = "credit"
	KindDebit    TransactionKind = "debit"
	KindTransfer TransactionKind = "transfer"
)

// TransactionStatus is the outcome of a movement. Only success is emitted today.
type TransactionStatus string

// Transaction statuses.
const (
	StatusSuccess TransactionStatus = "success"
	StatusFailed  TransactionStatus = "failed"
	StatusPending TransactionStatus = "pending"
)

// Method labels.
const (
	MethodCash           = "Cash"
	MethodCashDeposit    = "Cash Submit in Bank"
	MethodTransfer       = "Transfer"
	MethodQR             = "QR"
	MethodInitialDeposit = "Initial Deposit"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Transaction is an immutable record of one completed movement.
//
// ResultingBalance is the post-movement balance of the primary account:
// the destination of a credit, the source of a debit or transfer.
// CounterpartyBalance is set for transfers only and holds the recipient's
// post-transfer balance.
type Transaction struct {
	ID                  string              `json:"id"`
	Seq                 int64               `json:"seq"`
	Kind                TransactionKind     `json:"kind"`
	Source              string              `json:"source"`
	Destination         string              `json:"destination"`
	Amount              decimal.Decimal     `json:"amount"`
	Currency            string              `json:"currency"`
	Status              TransactionStatus   `json:"status"`
	Method              string              `json:"method"`
	ResultingBalance    decimal.Decimal     `json:"resulting_balance"`
	CounterpartyBalance decimal.NullDecimal `json:"counterparty_balance"`
	CreatedAt           time.Time           `json:"created_at"`
}

// Date returns the UTC calendar date of the record.
func (t Transaction) Date() string {
	return t.CreatedAt.UTC().Format(dateLayout)
}

// Time returns the UTC time of day of the record.
func (t Transaction) Time() string {
	return t.CreatedAt.UTC().Format(timeLayout)
}

// PrimaryAccount returns the account whose balance ResultingBalance holds.
func (t Transaction) PrimaryAccount() string {
	if t.Kind == KindCredit {
		return t.Destination
	}

	return t.Source
}

// Involves reports whether the account is the source or destination.
func (t Transaction) Involves(accountID string) bool {
	return t.Source == accountID || t.Destination == accountID
}

// SignedAmount returns the balance change the record caused for the account.
func (t Transaction) SignedAmount(accountID string) decimal.Decimal {
	switch accountID {
	case t.Destination:
		return t.Amount
	case t.Source:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// Validate checks the shape invariants of the record.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}

	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: non-positive amount %s", ErrInvalidRecord, t.Amount)
	}

	if t.Source == "" || t.Destination == "" {
		return fmt.Errorf("%w: missing endpoint", ErrInvalidRecord)
	}

	switch t.Kind {
	case KindCredit:
		if t.Source != External || t.Destination == External {
			return fmt.Errorf("%w: credit must come from outside into an account", ErrInvalidRecord)
		}
	case KindDebit:
		if t.Source == External || t.Destination != External {
			return fmt.Errorf("%w: debit must leave an account to outside", ErrInvalidRecord)
		}
	case KindTransfer:
		if t.Source == External || t.Destination == External {
			return fmt.Errorf("%w: transfer needs two accounts", ErrInvalidRecord)
		}

		if t.Source == t.Destination {
			return fmt.Errorf("%w: transfer between the same account", ErrInvalidRecord)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, t.Kind)
	}

	if t.Kind != KindTransfer && t.CounterpartyBalance.Valid {
		return fmt.Errorf("%w: counterparty balance on a %s", ErrInvalidRecord, t.Kind)
	}

	return nil
}

// ListTransactionsParams is the input data to page through the whole log.
type ListTransactionsParams struct {
	Limit  int32
	Offset int64
}

// PageOffset returns the number of rows preceding page pageID of pageSize
// rows. Pages are numbered from 1.
func PageOffset(pageSize, pageID int32) int64 {
	return int64(pageID-1) * int64(pageSize)
}
