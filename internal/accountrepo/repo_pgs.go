// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"
	"iter"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ListPageSize is the number of rows fetched per round trip by List.
const ListPageSize = 100

const uniqueViolation = "23505"

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const accountColumns = `id, name, email, phone, address, hashed_pin, balance, status, created_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.Phone,
		&a.Address,
		&a.HashedPIN,
		&a.Balance,
		&a.Status,
		&a.CreatedAt,
	)

	return a, err
}

const createQuery = `
INSERT INTO
    accounts (id, name, email, phone, address, hashed_pin)
VALUES
    ($1, $2, $3, $4, $5, $6)
RETURNING ` + accountColumns

// Create creates the account with zero balance and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Address,
		arg.HashedPIN,
	)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Str("account", arg.ID).Send()

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && (pqErr.Constraint == "accounts_pkey" || pqErr.Code == uniqueViolation) {
			return domain.Account{}, domain.ErrDuplicateAccount
		}

		return domain.Account{}, errorspkg.ErrInternal
	}

	return a, nil
}

const getQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.Account, error) {
	return r.get(ctx, getQuery, id)
}

const getForUpdateQuery = getQuery + `FOR UPDATE
`

// GetForUpdate returns the account with the given id and locks its row
// until the surrounding transaction ends.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id string) (domain.Account, error) {
	return r.get(ctx, getForUpdateQuery, id)
}

func (r *RepoPGS) get(ctx context.Context, query, id string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Str("account", id).Send()

		return domain.Account{}, errorspkg.ErrInternal
	}

	return a, nil
}

const addBalanceQuery = `
UPDATE accounts
SET balance = balance + $1
WHERE id = $2
RETURNING ` + accountColumns

// AddBalance changes the account's balance and returns the changed account.
func (r *RepoPGS) AddBalance(ctx context.Context, id string, delta decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, addBalanceQuery, delta, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Str("account", id).Stringer("delta", delta).Send()

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "accounts_balance_check" {
			return domain.Account{}, domain.ErrInsufficientFunds
		}

		return domain.Account{}, errorspkg.ErrInternal
	}

	return a, nil
}

const setStatusQuery = `
UPDATE accounts
SET status = $1
WHERE id = $2
RETURNING ` + accountColumns

// SetStatus changes the account's status and returns the changed account.
func (r *RepoPGS) SetStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, setStatusQuery, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Str("account", id).Send()

		return domain.Account{}, errorspkg.ErrInternal
	}

	return a, nil
}

const listAfterQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id > $1
ORDER BY id
LIMIT $2
`

// List returns a lazy sequence over all accounts ordered by id.
//
// Rows are fetched in pages of ListPageSize as the sequence is consumed.
// Every range over the returned sequence starts again from the first account.
func (r *RepoPGS) List(ctx context.Context) iter.Seq2[domain.Account, error] {
	return func(yield func(domain.Account, error) bool) {
		after := ""

		for {
			page, err := r.listAfter(ctx, after, ListPageSize)
			if err != nil {
				yield(domain.Account{}, err)
				return
			}

			for _, a := range page {
				if !yield(a, nil) {
					return
				}
			}

			if len(page) < ListPageSize {
				return
			}

			after = page[len(page)-1].ID
		}
	}
}

func (r *RepoPGS) listAfter(ctx context.Context, after string, limit int32) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listAfterQuery, after, limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
