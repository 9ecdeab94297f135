package memstore

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// TransactionRepo is the read side of the in-memory transaction log.
// Records are only ever appended through ExecTx.
type TransactionRepo struct {
	s *Store
}

// Get returns the transaction with the given id.
func (r *TransactionRepo) Get(ctx context.Context, id string) (domain.Transaction, error) {
	if err := checkCtx(ctx); err != nil {
		return domain.Transaction{}, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i, ok := r.s.logByID[id]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	return r.s.log[i], nil
}

// ListByAccount returns every transaction the account is a party to, in insertion order.
func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := []domain.Transaction{}

	for _, t := range r.s.log {
		if t.Involves(accountID) {
			items = append(items, t)
		}
	}

	return items, nil
}

// List returns the specified page of the whole log in insertion order.
func (r *TransactionRepo) List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.Transaction, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return page(r.s.log, arg.Limit, arg.Offset), nil
}

func page[T any](items []T, limit int32, offset int64) []T {
	if offset < 0 {
		offset = 0
	}

	if offset >= int64(len(items)) || limit <= 0 {
		return []T{}
	}

	start := int(offset)
	end := min(start+int(limit), len(items))

	out := make([]T, end-start)
	copy(out, items[start:end])

	return out
}
