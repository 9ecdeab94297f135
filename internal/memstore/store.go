// Package memstore is an in-memory implementation of the account store,
// the transaction log, the ticket and session stores and the ledger unit of work.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/google/uuid"
)

// Store holds all ledger state in memory.
//
// mu guards the maps and the log. Each account also has its own mutex that
// ExecTx holds for the duration of a movement.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]domain.Account
	accountLocks map[string]*sync.Mutex

	log     []domain.Transaction
	logByID map[string]int
	seq     int64

	tickets     map[uuid.UUID]domain.Ticket
	ticketOrder []uuid.UUID

	sessions map[uuid.UUID]domain.Session

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		accountLocks: make(map[string]*sync.Mutex),
		logByID:      make(map[string]int),
		tickets:      make(map[uuid.UUID]domain.Ticket),
		sessions:     make(map[uuid.UUID]domain.Session),
		now:          time.Now,
	}
}

// Accounts returns the account store view.
func (s *Store) Accounts() *AccountRepo {
	return &AccountRepo{s: s}
}

// Transactions returns the read side of the transaction log.
func (s *Store) Transactions() *TransactionRepo {
	return &TransactionRepo{s: s}
}

// Tickets returns the ticket store view.
func (s *Store) Tickets() *TicketRepo {
	return &TicketRepo{s: s}
}

// Sessions returns the session store view.
func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{s: s}
}

func checkCtx(ctx context.Context) error {
	return ctx.Err()
}

func lockOrder(ids []string) []string {
	return slices.Compact(slices.Sorted(slices.Values(ids)))
}
