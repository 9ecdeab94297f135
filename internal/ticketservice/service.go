// Package ticketservice runs the passbook and chequebook request workflow.
package ticketservice

import (
	"context"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by ticket service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ticketservice
type Repo interface {
	Create(ctx context.Context, id uuid.UUID, accountID string, kind domain.TicketKind) (domain.Ticket, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Ticket, error)
	Decide(ctx context.Context, id uuid.UUID, status domain.TicketStatus, at time.Time) (domain.Ticket, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Ticket, error)
	List(ctx context.Context, arg domain.ListTicketsParams) ([]domain.Ticket, error)
}

// Service facilitates ticket service layer logic.
type Service struct {
	repo  Repo
	newID func() uuid.UUID
	now   func() time.Time
}

// New returns ticket service.
func New(tr Repo) *Service {
	return &Service{
		repo:  tr,
		newID: uuid.New,
		now:   time.Now,
	}
}

// Submit raises a pending request of the given kind for the account.
func (s *Service) Submit(ctx context.Context, accountID string, kind domain.TicketKind) (domain.Ticket, error) {
	if !kind.Valid() {
		return domain.Ticket{}, domain.ErrInvalidTicketKind
	}

	ticket, err := s.repo.Create(ctx, s.newID(), accountID, kind)
	if err != nil {
		return domain.Ticket{}, err
	}

	zerolog.Ctx(ctx).Info().
		Str("ticket", ticket.ID.String()).
		Str("account", accountID).
		Str("kind", string(kind)).
		Msg("ticket submitted")

	return ticket, nil
}

// Approve moves a pending ticket to approved.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (domain.Ticket, error) {
	return s.decide(ctx, id, domain.TicketApproved)
}

// Reject moves a pending ticket to rejected.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (domain.Ticket, error) {
	return s.decide(ctx, id, domain.TicketRejected)
}

func (s *Service) decide(ctx context.Context, id uuid.UUID, status domain.TicketStatus) (domain.Ticket, error) {
	ticket, err := s.repo.Decide(ctx, id, status, s.now().UTC())
	if err != nil {
		return domain.Ticket{}, err
	}

	zerolog.Ctx(ctx).Info().
		Str("ticket", id.String()).
		Str("status", string(status)).
		Msg("ticket decided")

	return ticket, nil
}

// Get returns the ticket with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Ticket, error) {
	return s.repo.Get(ctx, id)
}

// ListByAccount returns tickets of the account, oldest first.
func (s *Service) ListByAccount(ctx context.Context, accountID string) ([]domain.Ticket, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// List returns one page of all tickets, oldest first.
func (s *Service) List(ctx context.Context, pageSize, pageID int32) ([]domain.Ticket, error) {
	if pageSize <= 0 || pageID <= 0 {
		return []domain.Ticket{}, nil
	}

	arg := domain.ListTicketsParams{
		Limit:  pageSize,
		Offset: domain.PageOffset(pageSize, pageID),
	}

	return s.repo.List(ctx, arg)
}
