// Package ticketrepo manages repository layer of request tickets.
package ticketrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/google/uuid"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates ticket repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns ticket RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const ticketColumns = `id, account_id, kind, status, created_at, decided_at`

func scanTicket(row interface{ Scan(...any) error }) (domain.Ticket, error) {
	var t domain.Ticket

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Kind,
		&t.Status,
		&t.CreatedAt,
		&t.DecidedAt,
	)

	return t, err
}

const createQuery = `
INSERT INTO
    tickets (id, account_id, kind)
VALUES
    ($1, $2, $3)
RETURNING ` + ticketColumns

// Create creates a pending ticket and then returns it.
func (r *RepoPGS) Create(ctx context.Context, id uuid.UUID, accountID string, kind domain.TicketKind) (domain.Ticket, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTicket(r.db.QueryRowContext(ctx, createQuery, id, accountID, kind))
	if err != nil {
		l.Error().Err(err).Str("account", accountID).Send()

		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "tickets_account_id_fkey":
				return domain.Ticket{}, domain.ErrAccountNotFound
			case "tickets_kind_check":
				return domain.Ticket{}, domain.ErrInvalidTicketKind
			}
		}

		return domain.Ticket{}, errorspkg.ErrInternal
	}

	return t, nil
}

const getQuery = `
SELECT ` + ticketColumns + `
FROM tickets
WHERE id = $1
`

// Get returns the ticket with the given id.
func (r *RepoPGS) Get(ctx context.Context, id uuid.UUID) (domain.Ticket, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTicket(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}

		l.Error().Err(err).Stringer("ticket", id).Send()

		return domain.Ticket{}, errorspkg.ErrInternal
	}

	return t, nil
}

const decideQuery = `
UPDATE tickets
SET status = $1, decided_at = $2
WHERE id = $3 AND status = 'pending'
RETURNING ` + ticketColumns

// Decide moves a pending ticket to the given terminal status.
//
// The update only matches pending tickets, so of two concurrent decisions
// exactly one wins. The loser, or a decision on a missing ticket, gets
// ErrInvalidTransition or ErrTicketNotFound respectively.
func (r *RepoPGS) Decide(ctx context.Context, id uuid.UUID, status domain.TicketStatus, at time.Time) (domain.Ticket, error) {
	l := zerolog.Ctx(ctx)

	t, err := scanTicket(r.db.QueryRowContext(ctx, decideQuery, status, at, id))
	if err == nil {
		return t, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		l.Error().Err(err).Stringer("ticket", id).Send()
		return domain.Ticket{}, errorspkg.ErrInternal
	}

	if _, err := r.Get(ctx, id); err != nil {
		return domain.Ticket{}, err
	}

	return domain.Ticket{}, domain.ErrInvalidTransition
}

const listByAccountQuery = `
SELECT ` + ticketColumns + `
FROM tickets
WHERE account_id = $1
ORDER BY created_at, id
`

// ListByAccount returns the tickets of the account, oldest first.
func (r *RepoPGS) ListByAccount(ctx context.Context, accountID string) ([]domain.Ticket, error) {
	return r.list(ctx, listByAccountQuery, accountID)
}

const listQuery = `
SELECT ` + ticketColumns + `
FROM tickets
ORDER BY created_at, id
LIMIT $1 OFFSET $2
`

// List returns the specified page of all tickets, oldest first.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListTicketsParams) ([]domain.Ticket, error) {
	return r.list(ctx, listQuery, arg.Limit, arg.Offset)
}

func (r *RepoPGS) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Ticket{}

	for rows.Next() {
		t, err := scanTicket(rows)
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
