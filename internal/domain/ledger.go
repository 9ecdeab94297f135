package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// LedgerTx is the transactional view of the account store and the log
// that a movement works through. Every account it touches has been locked
// by the unit of work that handed it out, and nothing it does is visible
// to others until that unit commits.
type LedgerTx interface {
	// GetAccount returns the locked account.
	GetAccount(ctx context.Context, id string) (Account, error)
	// AddBalance adds delta to the balance and returns the post-mutation account.
	AddBalance(ctx context.Context, id string, delta decimal.Decimal) (Account, error)
	// AppendTransaction appends the record to the log and returns it with its seq.
	AppendTransaction(ctx context.Context, t Transaction) (Transaction, error)
}

// MovementResult is the outcome of a credit or a debit.
type MovementResult struct {
	Account     Account     `json:"account"`
	Transaction Transaction `json:"transaction"`
}

// TransferResult is the outcome of a transfer.
type TransferResult struct {
	FromAccount Account     `json:"from_account"`
	ToAccount   Account     `json:"to_account"`
	Transaction Transaction `json:"transaction"`
}
