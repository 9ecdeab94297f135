package memstore

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountRepo is the in-memory account store.
type AccountRepo struct {
	s *Store
}

// Create creates the account with zero balance and then returns it.
func (r *AccountRepo) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Account{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[arg.ID]; ok {
		return domain.Account{}, domain.ErrDuplicateAccount
	}

	a := domain.Account{
		ID:        arg.ID,
		Name:      arg.Name,
		Email:     arg.Email,
		Phone:     arg.Phone,
		Address:   arg.Address,
		HashedPIN: arg.HashedPIN,
		Balance:   decimal.Zero,
		Status:    domain.AccountActive,
		CreatedAt: r.s.now().UTC(),
	}

	r.s.accounts[a.ID] = a
	r.s.accountLocks[a.ID] = &sync.Mutex{}

	return a, nil
}

// Get returns the account with the given id.
func (r *AccountRepo) Get(ctx context.Context, id string) (domain.Account, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Account{}, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// SetStatus changes the account's status and returns the changed account.
//
// It takes the account's movement lock, so a status change never lands in
// the middle of a movement.
func (r *AccountRepo) SetStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Account{}, err
	}

	r.s.mu.RLock()
	lock, ok := r.s.accountLocks[id]
	r.s.mu.RUnlock()

	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a := r.s.accounts[id]
	a.Status = status
	r.s.accounts[id] = a

	return a, nil
}

// List returns a lazy sequence over all accounts ordered by id.
//
// The set of ids is captured when a range starts; every range starts over.
func (r *AccountRepo) List(ctx context.Context) iter.Seq2[domain.Account, error] {
	return func(yield func(domain.Account, error) bool) {
		r.s.mu.RLock()
		ids := slices.Sorted(maps.Keys(r.s.accounts))
		r.s.mu.RUnlock()

		for _, id := range ids {
			if err := checkCtx(ctx); err != nil {
				yield(domain.Account{}, err)
				return
			}

			r.s.mu.RLock()
			a := r.s.accounts[id]
			r.s.mu.RUnlock()

			if !yield(a, nil) {
				return
			}
		}
	}
}
