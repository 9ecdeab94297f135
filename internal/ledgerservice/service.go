// Package ledgerservice is the ledger engine: it applies credits, debits and
// transfers so that balances and the transaction log always change together.
package ledgerservice

import (
	"context"
	"errors"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultTxIDAttempts bounds how many fresh transaction ids a movement tries.
const DefaultTxIDAttempts = 3

// UnitOfWork runs a movement atomically over a set of locked accounts.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type UnitOfWork interface {
	ExecTx(ctx context.Context, accountIDs []string, fn func(context.Context, domain.LedgerTx) error) error
}

// StatementCache drops cached statements made stale by a movement.
type StatementCache interface {
	Invalidate(ctx context.Context, accountIDs ...string) error
}

// Service facilitates ledger engine logic.
type Service struct {
	uow      UnitOfWork
	cache    StatementCache
	currency string
	attempts int
	newID    func() string
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator replaces the uuid v4 transaction id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithClock replaces time.Now as the source of transaction timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		s.now = fn
	}
}

// WithTxIDAttempts sets how many ids are tried before a collision is reported.
func WithTxIDAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithStatementCache makes the engine invalidate cached statements after commit.
func WithStatementCache(c StatementCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// New return ledger service struct to manage money movements.
func New(uow UnitOfWork, currency string, opts ...Option) *Service {
	s := &Service{
		uow:      uow,
		currency: currency,
		attempts: DefaultTxIDAttempts,
		newID:    uuid.NewString,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Credit adds money from outside the ledger to the account.
func (s *Service) Credit(ctx context.Context, accountID string, amount decimal.Decimal, method string) (domain.MovementResult, error) {
	if !domain.ValidAmount(amount) {
		return domain.MovementResult{}, domain.ErrInvalidAmount
	}

	if method == "" {
		method = domain.MethodCashDeposit
	}

	var result domain.MovementResult

	err := s.execTx(ctx, []string{accountID}, func(ctx context.Context, tx domain.LedgerTx, txID string) error {
		account, err := activeAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}

		account, err = tx.AddBalance(ctx, account.ID, amount)
		if err != nil {
			return err
		}

		record, err := tx.AppendTransaction(ctx, domain.Transaction{
			ID:               txID,
			Kind:             domain.KindCredit,
			Source:           domain.External,
			Destination:      account.ID,
			Amount:           amount,
			Currency:         s.currency,
			Status:           domain.StatusSuccess,
			Method:           method,
			ResultingBalance: account.Balance,
			CreatedAt:        s.now().UTC(),
		})
		if err != nil {
			return err
		}

		result = domain.MovementResult{Account: account, Transaction: record}

		return nil
	})
	if err != nil {
		return domain.MovementResult{}, err
	}

	s.invalidate(ctx, accountID)

	return result, nil
}

// Debit takes money out of the ledger from the account.
func (s *Service) Debit(ctx context.Context, accountID string, amount decimal.Decimal, method string) (domain.MovementResult, error) {
	if !domain.ValidAmount(amount) {
		return domain.MovementResult{}, domain.ErrInvalidAmount
	}

	if method == "" {
		method = domain.MethodCash
	}

	var result domain.MovementResult

	err := s.execTx(ctx, []string{accountID}, func(ctx context.Context, tx domain.LedgerTx, txID string) error {
		account, err := activeAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}

		if account.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		account, err = tx.AddBalance(ctx, account.ID, amount.Neg())
		if err != nil {
			return err
		}

		record, err := tx.AppendTransaction(ctx, domain.Transaction{
			ID:               txID,
			Kind:             domain.KindDebit,
			Source:           account.ID,
			Destination:      domain.External,
			Amount:           amount,
			Currency:         s.currency,
			Status:           domain.StatusSuccess,
			Method:           method,
			ResultingBalance: account.Balance,
			CreatedAt:        s.now().UTC(),
		})
		if err != nil {
			return err
		}

		result = domain.MovementResult{Account: account, Transaction: record}

		return nil
	})
	if err != nil {
		return domain.MovementResult{}, err
	}

	s.invalidate(ctx, accountID)

	return result, nil
}

// Transfer moves money between two accounts and records it as one transaction.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, method string) (domain.TransferResult, error) {
	if !domain.ValidAmount(amount) {
		return domain.TransferResult{}, domain.ErrInvalidAmount
	}

	if fromID == toID {
		return domain.TransferResult{}, domain.ErrSameAccount
	}

	if method == "" {
		method = domain.MethodTransfer
	}

	var result domain.TransferResult

	err := s.execTx(ctx, []string{fromID, toID}, func(ctx context.Context, tx domain.LedgerTx, txID string) error {
		from, err := activeAccount(ctx, tx, fromID)
		if err != nil {
			return err
		}

		to, err := activeAccount(ctx, tx, toID)
		if err != nil {
			return err
		}

		if from.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		from, err = tx.AddBalance(ctx, from.ID, amount.Neg())
		if err != nil {
			return err
		}

		to, err = tx.AddBalance(ctx, to.ID, amount)
		if err != nil {
			return err
		}

		record, err := tx.AppendTransaction(ctx, domain.Transaction{
			ID:                  txID,
			Kind:                domain.KindTransfer,
			Source:              from.ID,
			Destination:         to.ID,
			Amount:              amount,
			Currency:            s.currency,
			Status:              domain.StatusSuccess,
			Method:              method,
			ResultingBalance:    from.Balance,
			CounterpartyBalance: decimal.NewNullDecimal(to.Balance),
			CreatedAt:           s.now().UTC(),
		})
		if err != nil {
			return err
		}

		result = domain.TransferResult{FromAccount: from, ToAccount: to, Transaction: record}

		return nil
	})
	if err != nil {
		return domain.TransferResult{}, err
	}

	s.invalidate(ctx, fromID, toID)

	return result, nil
}

func activeAccount(ctx context.Context, tx domain.LedgerTx, id string) (domain.Account, error) {
	account, err := tx.GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	if !account.IsActive() {
		return domain.Account{}, domain.ErrAccountInactive
	}

	return account, nil
}

// execTx runs fn in a unit of work with a fresh transaction id. A duplicate id
// rolls the whole unit back and it is retried with another id, up to the
// configured number of attempts.
func (s *Service) execTx(ctx context.Context, accountIDs []string, fn func(context.Context, domain.LedgerTx, string) error) error {
	l := zerolog.Ctx(ctx)

	var err error

	for attempt := 1; attempt <= s.attempts; attempt++ {
		txID := s.newID()

		err = s.uow.ExecTx(ctx, accountIDs, func(ctx context.Context, tx domain.LedgerTx) error {
			return fn(ctx, tx, txID)
		})
		if !errors.Is(err, domain.ErrDuplicateTransaction) {
			return err
		}

		l.Warn().Err(err).Str("transaction", txID).Int("attempt", attempt).Msg("transaction id collision")
	}

	l.Error().Err(err).Strs("accounts", accountIDs).Int("attempts", s.attempts).Msg("transaction id collisions exhausted retries")

	return err
}

func (s *Service) invalidate(ctx context.Context, accountIDs ...string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Invalidate(ctx, accountIDs...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Strs("accounts", accountIDs).Msg("statement cache invalidation failed")
	}
}
