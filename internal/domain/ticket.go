package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketKind is the document a holder requests.
type TicketKind string

// Ticket kinds.
const (
	TicketPassbook   TicketKind = "passbook"
	TicketChequebook TicketKind = "chequebook"
)

// Valid reports whether the kind is known.
func (k TicketKind) Valid() bool {
	return k == TicketPassbook || k == TicketChequebook
}

// TicketStatus is the workflow state of a ticket.
type TicketStatus string

// Ticket statuses. Approved and rejected are terminal.
const (
	TicketPending  TicketStatus = "pending"
	TicketApproved TicketStatus = "approved"
	TicketRejected TicketStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s TicketStatus) Terminal() bool {
	return s == TicketApproved || s == TicketRejected
}

// Ticket is an administrative request raised by an account holder.
type Ticket struct {
	ID        uuid.UUID    `json:"id"`
	AccountID string       `json:"account_id"`
	Kind      TicketKind   `json:"kind"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	DecidedAt *time.Time   `json:"decided_at,omitempty"`
}

// ListTicketsParams is the input data to page through tickets.
type ListTicketsParams struct {
	Limit  int32
	Offset int64
}
