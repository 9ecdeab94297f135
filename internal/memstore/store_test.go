package memstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func createAccount(t *testing.T, s *Store, id string) domain.Account {
	t.Helper()

	a, err := s.Accounts().Create(context.Background(), domain.CreateAccountParams{
		ID:        id,
		Name:      randompkg.Owner(),
		Email:     randompkg.Email(),
		HashedPIN: randompkg.String(20),
	})
	require.NoError(t, err)
	require.True(t, a.Balance.IsZero())
	require.Equal(t, domain.AccountActive, a.Status)

	return a
}

func credit(id, account string, amount int64) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Kind:        domain.KindCredit,
		Source:      domain.External,
		Destination: account,
		Amount:      decimal.NewFromInt(amount),
		Status:      domain.StatusSuccess,
		CreatedAt:   time.Now(),
	}
}

func TestCreateDuplicate(t *testing.T) {
	t.Parallel()

	s := New()
	createAccount(t, s, "1000000000")

	_, err := s.Accounts().Create(context.Background(), domain.CreateAccountParams{ID: "1000000000"})
	require.ErrorIs(t, err, domain.ErrDuplicateAccount)

	_, err = s.Accounts().Get(context.Background(), "1000000001")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestExecTxCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	createAccount(t, s, "1000000000")

	err := s.ExecTx(ctx, []string{"1000000000"}, func(ctx context.Context, tx domain.LedgerTx) error {
		a, err := tx.AddBalance(ctx, "1000000000", decimal.NewFromInt(50))
		if err != nil {
			return err
		}

		rec := credit("tx-1", "1000000000", 50)
		rec.ResultingBalance = a.Balance

		appended, err := tx.AppendTransaction(ctx, rec)
		require.NoError(t, err)
		require.Equal(t, int64(1), appended.Seq)

		// Nothing is visible outside the unit before commit.
		outside, err := s.Accounts().Get(ctx, "1000000000")
		require.NoError(t, err)
		require.True(t, outside.Balance.IsZero())

		return nil
	})
	require.NoError(t, err)

	a, err := s.Accounts().Get(ctx, "1000000000")
	require.NoError(t, err)
	require.True(t, a.Balance.Equal(decimal.NewFromInt(50)))

	got, err := s.Transactions().Get(ctx, "tx-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Seq)
}

func TestExecTxRollback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	errRejected := errors.New("rejected")

	testCases := []struct {
		name    string
		ctx     func() context.Context
		fn      func(ctx context.Context, tx domain.LedgerTx) error
		wantErr error
	}{
		{
			name: "FnError",
			ctx:  context.Background,
			fn: func(ctx context.Context, tx domain.LedgerTx) error {
				if _, err := tx.AddBalance(ctx, "1000000000", decimal.NewFromInt(50)); err != nil {
					return err
				}

				if _, err := tx.AppendTransaction(ctx, credit("tx-1", "1000000000", 50)); err != nil {
					return err
				}

				return errRejected
			},
			wantErr: errRejected,
		},
		{
			name: "NegativeBalance",
			ctx:  context.Background,
			fn: func(ctx context.Context, tx domain.LedgerTx) error {
				_, err := tx.AddBalance(ctx, "1000000000", decimal.NewFromInt(-1))
				return err
			},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name: "CancelledContext",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				return ctx
			},
			fn: func(ctx context.Context, tx domain.LedgerTx) error {
				_, err := tx.AddBalance(ctx, "1000000000", decimal.NewFromInt(50))
				return err
			},
			wantErr: context.Canceled,
		},
		{
			name: "InvalidRecord",
			ctx:  context.Background,
			fn: func(ctx context.Context, tx domain.LedgerTx) error {
				rec := credit("tx-1", "1000000000", 50)
				rec.Kind = domain.KindDebit

				_, err := tx.AppendTransaction(ctx, rec)

				return err
			},
			wantErr: domain.ErrInvalidRecord,
		},
		{
			name: "UnknownEndpoint",
			ctx:  context.Background,
			fn: func(ctx context.Context, tx domain.LedgerTx) error {
				_, err := tx.AppendTransaction(ctx, credit("tx-1", "9999999999", 50))
				return err
			},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := New()
			createAccount(t, s, "1000000000")

			err := s.ExecTx(tc.ctx(), []string{"1000000000"}, tc.fn)
			require.ErrorIs(t, err, tc.wantErr)

			a, err := s.Accounts().Get(ctx, "1000000000")
			require.NoError(t, err)
			require.True(t, a.Balance.IsZero())

			txs, err := s.Transactions().ListByAccount(ctx, "1000000000")
			require.NoError(t, err)
			require.Empty(t, txs)
		})
	}
}

func TestExecTxUnknownAccount(t *testing.T) {
	t.Parallel()

	s := New()
	createAccount(t, s, "1000000000")

	err := s.ExecTx(context.Background(), []string{"1000000000", "2000000000"}, func(context.Context, domain.LedgerTx) error {
		t.Error("fn must not run")
		return nil
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestExecTxDuplicateID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	createAccount(t, s, "1000000000")

	appendCredit := func(ctx context.Context, tx domain.LedgerTx) error {
		_, err := tx.AppendTransaction(ctx, credit("same", "1000000000", 1))
		return err
	}

	require.NoError(t, s.ExecTx(ctx, []string{"1000000000"}, appendCredit))

	err := s.ExecTx(ctx, []string{"1000000000"}, appendCredit)
	require.ErrorIs(t, err, domain.ErrDuplicateTransaction)
	require.ErrorIs(t, err, domain.ErrIntegrityViolation)

	err = s.ExecTx(ctx, []string{"1000000000"}, func(ctx context.Context, tx domain.LedgerTx) error {
		if _, err := tx.AppendTransaction(ctx, credit("twice", "1000000000", 1)); err != nil {
			return err
		}

		_, err := tx.AppendTransaction(ctx, credit("twice", "1000000000", 1))

		return err
	})
	require.ErrorIs(t, err, domain.ErrDuplicateTransaction)

	all, err := s.Transactions().List(ctx, domain.ListTransactionsParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestAccountList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	for i := 5; i > 0; i-- {
		createAccount(t, s, fmt.Sprintf("%d000000000", i))
	}

	seq := s.Accounts().List(ctx)

	for run := 0; run < 2; run++ {
		var ids []string

		for a, err := range seq {
			require.NoError(t, err)

			ids = append(ids, a.ID)
		}

		require.Equal(t, []string{"1000000000", "2000000000", "3000000000", "4000000000", "5000000000"}, ids)
	}

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}

	require.Equal(t, 2, n)
}

func TestSetStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	createAccount(t, s, "1000000000")

	a, err := s.Accounts().SetStatus(ctx, "1000000000", domain.AccountInactive)
	require.NoError(t, err)
	require.False(t, a.IsActive())

	_, err = s.Accounts().SetStatus(ctx, "2000000000", domain.AccountInactive)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTickets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	createAccount(t, s, "1000000000")

	repo := s.Tickets()

	_, err := repo.Create(ctx, uuid.New(), "2000000000", domain.TicketPassbook)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = repo.Create(ctx, uuid.New(), "1000000000", "visa")
	require.ErrorIs(t, err, domain.ErrInvalidTicketKind)

	ticket, err := repo.Create(ctx, uuid.New(), "1000000000", domain.TicketChequebook)
	require.NoError(t, err)
	require.Equal(t, domain.TicketPending, ticket.Status)

	now := time.Now()

	decided, err := repo.Decide(ctx, ticket.ID, domain.TicketRejected, now)
	require.NoError(t, err)
	require.Equal(t, domain.TicketRejected, decided.Status)
	require.NotNil(t, decided.DecidedAt)

	_, err = repo.Decide(ctx, ticket.ID, domain.TicketApproved, now)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = repo.Decide(ctx, uuid.New(), domain.TicketApproved, now)
	require.ErrorIs(t, err, domain.ErrTicketNotFound)

	list, err := repo.ListByAccount(ctx, "1000000000")
	require.NoError(t, err)
	require.Len(t, list, 1)

	all, err := repo.List(ctx, domain.ListTicketsParams{Limit: 5, Offset: 1})
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestPage(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5}

	require.Equal(t, []int{3, 4}, page(items, 2, 2))
	require.Equal(t, []int{5}, page(items, 10, 4))
	require.Equal(t, []int{}, page(items, 10, 10))
	require.Equal(t, []int{}, page(items, 0, 0))
	require.Equal(t, []int{1, 2}, page(items, 2, -3))
	require.Equal(t, []int{}, page(items, 100, math.MaxInt64))
	require.Equal(t, []int{}, page(items, 100, domain.PageOffset(100, math.MaxInt32)))
}

func TestSessions(t *testing.T) {
	s := New()
	ctx := context.Background()

	arg := domain.CreateSessionParams{
		ID:           uuid.New(),
		Subject:      randompkg.AccountNumber(),
		Role:         "holder",
		RefreshToken: randompkg.String(32),
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	created, err := s.Sessions().Create(ctx, arg)
	require.NoError(t, err)
	require.False(t, created.IsBlocked)

	got, err := s.Sessions().Get(ctx, arg.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	blocked, err := s.Sessions().Block(ctx, arg.ID)
	require.NoError(t, err)
	require.True(t, blocked.IsBlocked)

	got, err = s.Sessions().Get(ctx, arg.ID)
	require.NoError(t, err)
	require.True(t, got.IsBlocked)

	_, err = s.Sessions().Get(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.Sessions().Block(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}
