// Package transactionrepo manages repository layer of the append-only transaction log.
package transactionrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// RepoPGS facilitates transaction log repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transaction RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const transactionColumns = `seq, id, kind, source_account, destination_account, amount, currency,
    status, method, resulting_balance, counterparty_balance, created_at`

func endpoint(id string) sql.NullString {
	if id == domain.External {
		return sql.NullString{}
	}

	return sql.NullString{String: id, Valid: true}
}

func scanTransaction(row interface{ Scan(...any) error }) (domain.Transaction, error) {
	var (
		t                   domain.Transaction
		source, destination sql.NullString
	)

	err := row.Scan(
		&t.Seq,
		&t.ID,
		&t.Kind,
		&source,
		&destination,
		&t.Amount,
		&t.Currency,
		&t.Status,
		&t.Method,
		&t.ResultingBalance,
		&t.CounterpartyBalance,
		&t.CreatedAt,
	)
	if err != nil {
		return t, err
	}

	t.Source, t.Destination = domain.External, domain.External

	if source.Valid {
		t.Source = source.String
	}

	if destination.Valid {
		t.Destination = destination.String
	}

	return t, nil
}

const appendQuery = `
INSERT INTO
    transactions (id, kind, source_account, destination_account, amount, currency,
        status, method, resulting_balance, counterparty_balance, created_at)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + transactionColumns

// Append validates the record, appends it to the log and returns it with its seq.
func (r *RepoPGS) Append(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	if err := t.Validate(); err != nil {
		l.Error().Err(err).Str("transaction", t.ID).Send()
		return domain.Transaction{}, err
	}

	row := r.db.QueryRowContext(ctx, appendQuery,
		t.ID,
		t.Kind,
		endpoint(t.Source),
		endpoint(t.Destination),
		t.Amount,
		t.Currency,
		t.Status,
		t.Method,
		t.ResultingBalance,
		t.CounterpartyBalance,
		t.CreatedAt,
	)

	created, err := scanTransaction(row)
	if err != nil {
		l.Error().Err(err).Str("transaction", t.ID).Send()

		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch {
			case pqErr.Constraint == "transactions_id_key" || pqErr.Code == uniqueViolation:
				return domain.Transaction{}, domain.ErrDuplicateTransaction
			case pqErr.Constraint == "transactions_source_account_fkey",
				pqErr.Constraint == "transactions_destination_account_fkey":
				return domain.Transaction{}, domain.ErrAccountNotFound
			case pqErr.Code == checkViolation:
				return domain.Transaction{}, domain.ErrInvalidRecord
			}
		}

		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return created, nil
}

const getQuery = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = $1
`

// Get returns the transaction with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTransaction(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Str("transaction", id).Send()

		return domain.Transaction{}, errorspkg.ErrInternal
	}

	return t, nil
}

const listByAccountQuery = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE
    source_account = $1 OR destination_account = $1
ORDER BY seq
`

// ListByAccount returns every transaction the account is a party to, in insertion order.
func (r *RepoPGS) ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	return r.list(ctx, listByAccountQuery, accountID)
}

const listQuery = `
SELECT ` + transactionColumns + `
FROM transactions
ORDER BY seq
LIMIT $1 OFFSET $2
`

// List returns the specified page of the whole log in insertion order.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.Transaction, error) {
	return r.list(ctx, listQuery, arg.Limit, arg.Offset)
}

func (r *RepoPGS) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
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
