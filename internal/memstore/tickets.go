package memstore

import (
	"context"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/google/uuid"
)

// TicketRepo is the in-memory ticket store.
type TicketRepo struct {
	s *Store
}

// Create creates a pending ticket and then returns it.
func (r *TicketRepo) Create(ctx context.Context, id uuid.UUID, accountID string, kind domain.TicketKind) (domain.Ticket, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Ticket{}, err
	}

	if !kind.Valid() {
		return domain.Ticket{}, domain.ErrInvalidTicketKind
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[accountID]; !ok {
		return domain.Ticket{}, domain.ErrAccountNotFound
	}

	t := domain.Ticket{
		ID:        id,
		AccountID: accountID,
		Kind:      kind,
		Status:    domain.TicketPending,
		CreatedAt: r.s.now().UTC(),
	}

	r.s.tickets[id] = t
	r.s.ticketOrder = append(r.s.ticketOrder, id)

	return t, nil
}

// Get returns the ticket with the given id.
func (r *TicketRepo) Get(ctx context.Context, id uuid.UUID) (domain.Ticket, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Ticket{}, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tickets[id]
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}

	return t, nil
}

// Decide moves a pending ticket to the given terminal status.
func (r *TicketRepo) Decide(ctx context.Context, id uuid.UUID, status domain.TicketStatus, at time.Time) (domain.Ticket, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Ticket{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tickets[id]
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}

	if t.Status != domain.TicketPending {
		return domain.Ticket{}, domain.ErrInvalidTransition
	}

	t.Status = status
	t.DecidedAt = &at
	r.s.tickets[id] = t

	return t, nil
}

// ListByAccount returns the tickets of the account, oldest first.
func (r *TicketRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Ticket, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := []domain.Ticket{}

	for _, id := range r.s.ticketOrder {
		if t := r.s.tickets[id]; t.AccountID == accountID {
			items = append(items, t)
		}
	}

	return items, nil
}

// List returns the specified page of all tickets, oldest first.
func (r *TicketRepo) List(ctx context.Context, arg domain.ListTicketsParams) ([]domain.Ticket, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := page(r.s.ticketOrder, arg.Limit, arg.Offset)
	items := make([]domain.Ticket, 0, len(ids))

	for _, id := range ids {
		items = append(items, r.s.tickets[id])
	}

	return items, nil
}
