package memstore

import (
	"context"
	"sync"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ExecTx runs fn as one atomic movement.
//
// The mutexes of the given accounts are taken in ascending id order and held
// until ExecTx returns. Balance changes and appended records are staged in
// the handle given to fn and applied together under the store lock only when
// fn returns nil and ctx is still live; otherwise they are discarded.
func (s *Store) ExecTx(ctx context.Context, accountIDs []string, fn func(context.Context, domain.LedgerTx) error) error {
	ids := lockOrder(accountIDs)

	s.mu.RLock()

	locks := make([]*sync.Mutex, 0, len(ids))

	for _, id := range ids {
		lock, ok := s.accountLocks[id]
		if !ok {
			s.mu.RUnlock()
			return domain.ErrAccountNotFound
		}

		locks = append(locks, lock)
	}

	s.mu.RUnlock()

	for _, lock := range locks {
		lock.Lock()
		defer lock.Unlock()
	}

	tx := &memTx{
		s:      s,
		staged: make(map[string]domain.Account, len(ids)),
	}

	s.mu.RLock()
	for _, id := range ids {
		tx.staged[id] = s.accounts[id]
	}
	s.mu.RUnlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.commit(tx)
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tx.appended {
		if _, dup := s.logByID[t.ID]; dup {
			return domain.ErrDuplicateTransaction
		}
	}

	for id, a := range tx.staged {
		s.accounts[id] = a
	}

	for _, t := range tx.appended {
		s.logByID[t.ID] = len(s.log)
		s.log = append(s.log, t)
	}

	return nil
}

// memTx stages the changes of one movement. Only accounts locked by ExecTx
// may be mutated through it.
type memTx struct {
	s        *Store
	staged   map[string]domain.Account
	appended []domain.Transaction
}

func (t *memTx) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	if a, ok := t.staged[id]; ok {
		return a, nil
	}

	return t.s.Accounts().Get(ctx, id)
}

func (t *memTx) AddBalance(ctx context.Context, id string, delta decimal.Decimal) (domain.Account, error) {
	a, ok := t.staged[id]
	if !ok {
		zerolog.Ctx(ctx).Error().Str("account", id).Msg("balance change on an account outside the unit of work")
		return domain.Account{}, errorspkg.ErrInternal
	}

	balance := a.Balance.Add(delta)
	if balance.IsNegative() {
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	a.Balance = balance
	t.staged[id] = a

	return a, nil
}

// AppendTransaction stages the record and reserves its seq. Like a database
// sequence, seqs of discarded movements are never reused.
func (t *memTx) AppendTransaction(ctx context.Context, record domain.Transaction) (domain.Transaction, error) {
	if err := record.Validate(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("transaction", record.ID).Send()
		return domain.Transaction{}, err
	}

	for _, endpoint := range []string{record.Source, record.Destination} {
		if endpoint == domain.External {
			continue
		}

		if _, err := t.GetAccount(ctx, endpoint); err != nil {
			return domain.Transaction{}, err
		}
	}

	for _, staged := range t.appended {
		if staged.ID == record.ID {
			return domain.Transaction{}, domain.ErrDuplicateTransaction
		}
	}

	t.s.mu.Lock()
	_, dup := t.s.logByID[record.ID]
	if !dup {
		t.s.seq++
		record.Seq = t.s.seq
	}
	t.s.mu.Unlock()

	if dup {
		return domain.Transaction{}, domain.ErrDuplicateTransaction
	}

	t.appended = append(t.appended, record)

	return record, nil
}
