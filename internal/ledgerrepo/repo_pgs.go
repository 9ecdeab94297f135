// Package ledgerrepo runs ledger movements as single Postgres transactions.
package ledgerrepo

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/transactionrepo"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates ledger unit of work logic.
type RepoPGS struct {
	conn *sql.DB
}

// NewRepoPGS returns ledger RepoPGS wiht connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		conn: db,
	}
}

// ExecTx runs fn inside one database transaction.
//
// Before fn runs, the rows of every given account are locked with
// SELECT ... FOR UPDATE in ascending id order, so movements over the same
// accounts serialize and crossing transfers cannot deadlock. The transaction
// commits only when fn returns nil.
func (r *RepoPGS) ExecTx(ctx context.Context, accountIDs []string, fn func(context.Context, domain.LedgerTx) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	ltx := &ledgerTx{
		accounts:     accountrepo.NewRepoPGS(tx),
		transactions: transactionrepo.NewRepoPGS(tx),
		locked:       make(map[string]domain.Account, len(accountIDs)),
	}

	for _, id := range LockOrder(accountIDs) {
		a, err := ltx.accounts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		ltx.locked[id] = a
	}

	if err := fn(ctx, ltx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

// LockOrder returns the distinct ids in the order locks must be taken.
func LockOrder(ids []string) []string {
	return slices.Compact(slices.Sorted(slices.Values(ids)))
}

type ledgerTx struct {
	accounts     *accountrepo.RepoPGS
	transactions *transactionrepo.RepoPGS
	locked       map[string]domain.Account
}

func (t *ledgerTx) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	if a, ok := t.locked[id]; ok {
		return a, nil
	}

	return t.accounts.Get(ctx, id)
}

func (t *ledgerTx) AddBalance(ctx context.Context, id string, delta decimal.Decimal) (domain.Account, error) {
	a, err := t.accounts.AddBalance(ctx, id, delta)
	if err != nil {
		return a, err
	}

	if _, ok := t.locked[id]; ok {
		t.locked[id] = a
	}

	return a, nil
}

func (t *ledgerTx) AppendTransaction(ctx context.Context, record domain.Transaction) (domain.Transaction, error) {
	return t.transactions.Append(ctx, record)
}
