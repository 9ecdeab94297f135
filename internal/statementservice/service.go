// Package statementservice derives per-account statements from the transaction log.
package statementservice

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/rs/zerolog"
)

// AccountRepo provides account lookups needed by statement service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package statementservice
type AccountRepo interface {
	Get(ctx context.Context, id string) (domain.Account, error)
}

// TransactionRepo provides transaction log reads needed by statement service layer.
type TransactionRepo interface {
	ListByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error)
	List(ctx context.Context, arg domain.ListTransactionsParams) ([]domain.Transaction, error)
}

// Cache stores full statements. ok is false on a miss. Get reports the
// account's current generation, and Set drops lines built under a generation
// that has since been invalidated.
type Cache interface {
	Get(ctx context.Context, accountID string) (lines []domain.StatementLine, generation int64, ok bool, err error)
	Set(ctx context.Context, accountID string, generation int64, lines []domain.StatementLine) error
}

// Service facilitates statement service layer logic.
type Service struct {
	accounts     AccountRepo
	transactions TransactionRepo
	cache        Cache
}

// New returns statement service. cache may be nil.
func New(ar AccountRepo, tr TransactionRepo, c Cache) *Service {
	return &Service{
		accounts:     ar,
		transactions: tr,
		cache:        c,
	}
}

// StatementFor returns the statement of the account, optionally limited to
// an inclusive range of days. Only full statements are cached.
func (s *Service) StatementFor(ctx context.Context, accountID string, period domain.Period) ([]domain.StatementLine, error) {
	l := zerolog.Ctx(ctx)

	if err := period.Validate(); err != nil {
		return nil, err
	}

	var (
		generation int64
		cacheable  bool
	)

	if s.cache != nil {
		lines, gen, ok, err := s.cache.Get(ctx, accountID)

		switch {
		case err != nil:
			l.Warn().Err(err).Str("account", accountID).Msg("statement cache read failed")
		case ok:
			return Filter(lines, period), nil
		default:
			generation, cacheable = gen, true
		}
	}

	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}

	records, err := s.transactions.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	lines := Build(accountID, records)

	if cacheable {
		if err := s.cache.Set(ctx, accountID, generation, lines); err != nil {
			l.Warn().Err(err).Str("account", accountID).Msg("statement cache write failed")
		}
	}

	return Filter(lines, period), nil
}

// Transactions returns one page of the whole log in insertion order.
func (s *Service) Transactions(ctx context.Context, pageSize, pageID int32) ([]domain.Transaction, error) {
	if pageSize <= 0 || pageID <= 0 {
		return []domain.Transaction{}, nil
	}

	arg := domain.ListTransactionsParams{
		Limit:  pageSize,
		Offset: domain.PageOffset(pageSize, pageID),
	}

	return s.transactions.List(ctx, arg)
}
