// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"errors"
	"iter"
	"regexp"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// accountNumberAttempts bounds retries on account number collisions.
const accountNumberAttempts = 3

var pinPattern = regexp.MustCompile(`^[0-9]{4,6}$`)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
	SetStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error)
	List(ctx context.Context) iter.Seq2[domain.Account, error]
}

// Ledger is the part of the ledger engine registration needs.
type Ledger interface {
	Credit(ctx context.Context, accountID string, amount decimal.Decimal, method string) (domain.MovementResult, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo   Repo
	ledger Ledger
	newID  func() string
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo, l Ledger) *Service {
	return &Service{
		repo:   ar,
		ledger: l,
		newID:  randompkg.AccountNumber,
	}
}

// RegisterParams holds data nedeed to open an account.
type RegisterParams struct {
	Name           string
	Email          string
	Phone          string
	Address        string
	PIN            string
	InitialDeposit decimal.Decimal
}

// Register opens an account with a fresh account number.
//
// A positive initial deposit is credited through the ledger, so the log
// always replays to the balance.
func (s *Service) Register(ctx context.Context, arg RegisterParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if !pinPattern.MatchString(arg.PIN) {
		return domain.Account{}, domain.ErrInvalidPIN
	}

	if arg.InitialDeposit.IsNegative() || (arg.InitialDeposit.IsPositive() && !domain.ValidAmount(arg.InitialDeposit)) {
		return domain.Account{}, domain.ErrInvalidAmount
	}

	hashedPIN, err := passpkg.Hash(arg.PIN)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, err
	}

	params := domain.CreateAccountParams{
		Name:      arg.Name,
		Email:     arg.Email,
		Phone:     arg.Phone,
		Address:   arg.Address,
		HashedPIN: hashedPIN,
	}

	var account domain.Account

	for attempt := 1; attempt <= accountNumberAttempts; attempt++ {
		params.ID = s.newID()

		account, err = s.repo.Create(ctx, params)
		if !errors.Is(err, domain.ErrDuplicateAccount) {
			break
		}

		l.Warn().Str("account", params.ID).Int("attempt", attempt).Msg("account number collision")
	}

	if err != nil {
		return domain.Account{}, err
	}

	if arg.InitialDeposit.IsPositive() {
		result, err := s.ledger.Credit(ctx, account.ID, arg.InitialDeposit, domain.MethodInitialDeposit)
		if err != nil {
			l.Error().Err(err).Str("account", account.ID).Msg("initial deposit failed")
			return domain.Account{}, err
		}

		account = result.Account
	}

	return account, nil
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// All returns a lazy sequence over every account ordered by id.
func (s *Service) All(ctx context.Context) iter.Seq2[domain.Account, error] {
	return s.repo.List(ctx)
}

// List returns one page of accounts ordered by id.
func (s *Service) List(ctx context.Context, pageSize, pageID int32) ([]domain.Account, error) {
	accounts := []domain.Account{}

	if pageSize <= 0 || pageID <= 0 {
		return accounts, nil
	}

	offset := domain.PageOffset(pageSize, pageID)

	var i int64
	for a, err := range s.repo.List(ctx) {
		if err != nil {
			return nil, err
		}

		if i >= offset {
			accounts = append(accounts, a)
		}

		i++

		if len(accounts) == int(pageSize) {
			break
		}
	}

	return accounts, nil
}

// Deactivate marks the account inactive. Inactive accounts keep their
// history but take part in no further movements.
func (s *Service) Deactivate(ctx context.Context, id string) (domain.Account, error) {
	return s.repo.SetStatus(ctx, id, domain.AccountInactive)
}

// VerifyPIN returns the account if the PIN matches.
func (s *Service) VerifyPIN(ctx context.Context, id, pin string) (domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	if err := passpkg.Check(pin, account.HashedPIN); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("account", id).Send()
		return domain.Account{}, domain.ErrWrongPIN
	}

	return account, nil
}
