package statementservice

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/memstore"
	"github.com/go-petr/pet-ledger/pkg/currencypkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStatementFor(t *testing.T) {
	t.Parallel()

	full := Build("A", testLog())

	testCases := []struct {
		name          string
		period        domain.Period
		withCache     bool
		buildStubs    func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache)
		checkResponse func(t *testing.T, lines []domain.StatementLine, err error)
	}{
		{
			name: "NoCache",
			buildStubs: func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache) {
				accounts.EXPECT().Get(gomock.Any(), "A").Times(1).Return(domain.Account{ID: "A"}, nil)
				txs.EXPECT().ListByAccount(gomock.Any(), "A").Times(1).Return(testLog(), nil)
			},
			checkResponse: func(t *testing.T, lines []domain.StatementLine, err error) {
				require.NoError(t, err)

				if diff := cmp.Diff(full, lines, decimalComp); diff != "" {
					t.Errorf("StatementFor(A) mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:      "CacheHit",
			withCache: true,
			buildStubs: func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache) {
				cache.EXPECT().Get(gomock.Any(), "A").Times(1).Return(full, int64(3), true, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)
				txs.EXPECT().ListByAccount(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, lines []domain.StatementLine, err error) {
				require.NoError(t, err)
				require.Len(t, lines, len(full))
			},
		},
		{
			name:      "CacheMissFills",
			withCache: true,
			buildStubs: func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache) {
				cache.EXPECT().Get(gomock.Any(), "A").Times(1).Return(nil, int64(7), false, nil)
				accounts.EXPECT().Get(gomock.Any(), "A").Times(1).Return(domain.Account{ID: "A"}, nil)
				txs.EXPECT().ListByAccount(gomock.Any(), "A").Times(1).Return(testLog(), nil)
				cache.EXPECT().Set(gomock.Any(), "A", int64(7), gomock.Len(len(full))).Times(1).Return(nil)
			},
			checkResponse: func(t *testing.T, lines []domain.StatementLine, err error) {
				require.NoError(t, err)
				require.Len(t, lines, len(full))
			},
		},
		{
			name:      "CacheDownFallsBack",
			withCache: true,
			buildStubs: func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache) {
				cache.EXPECT().Get(gomock.Any(), "A").Times(1).Return(nil, int64(0), false, errors.New("dial tcp: refused"))
				accounts.EXPECT().Get(gomock.Any(), "A").Times(1).Return(domain.Account{ID: "A"}, nil)
				txs.EXPECT().ListByAccount(gomock.Any(), "A").Times(1).Return(testLog(), nil)
				cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, lines []domain.StatementLine, err error) {
				require.NoError(t, err)
				require.Len(t, lines, len(full))
			},
		},
		{
			name:      "CacheWriteFails",
			withCache: true,
			buildStubs: func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache) {
				cache.EXPECT().Get(gomock.Any(), "A").Times(1).Return(nil, int64(1), false, nil)
				accounts.EXPECT().Get(gomock.Any(), "A").Times(1).Return(domain.Account{ID: "A"}, nil)
				txs.EXPECT().ListByAccount(gomock.Any(), "A").Times(1).Return(testLog(), nil)
				cache.EXPECT().Set(gomock.Any(), "A", int64(1), gomock.Any()).Times(1).Return(errors.New("dial tcp: refused"))
			},
			checkResponse: func(t *testing.T, lines []domain.StatementLine, err error) {
				require.NoError(t, err)
				require.Len(t, lines, len(full))
			},
		},
		{
			name:   "Period",
			period: domain.Period{From: base.AddDate(0, 0, 1)},
			buildStubs: func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache) {
				accounts.EXPECT().Get(gomock.Any(), "A").Times(1).Return(domain.Account{ID: "A"}, nil)
				txs.EXPECT().ListByAccount(gomock.Any(), "A").Times(1).Return(testLog(), nil)
			},
			checkResponse: func(t *testing.T, lines []domain.StatementLine, err error) {
				require.NoError(t, err)
				require.Empty(t, lines)
			},
		},
		{
			name:   "InvalidPeriod",
			period: domain.Period{From: base, To: base.AddDate(0, 0, -1)},
			buildStubs: func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, lines []domain.StatementLine, err error) {
				require.ErrorIs(t, err, domain.ErrInvalidPeriod)
			},
		},
		{
			name: "AccountNotFound",
			buildStubs: func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache) {
				accounts.EXPECT().Get(gomock.Any(), "A").Times(1).Return(domain.Account{}, domain.ErrAccountNotFound)
				txs.EXPECT().ListByAccount(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, lines []domain.StatementLine, err error) {
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
				require.Nil(t, lines)
			},
		},
		{
			name: "LogError",
			buildStubs: func(accounts *MockAccountRepo, txs *MockTransactionRepo, cache *MockCache) {
				accounts.EXPECT().Get(gomock.Any(), "A").Times(1).Return(domain.Account{ID: "A"}, nil)
				txs.EXPECT().ListByAccount(gomock.Any(), "A").Times(1).Return(nil, errorspkg.ErrInternal)
			},
			checkResponse: func(t *testing.T, lines []domain.StatementLine, err error) {
				require.ErrorIs(t, err, errorspkg.ErrInternal)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			accounts := NewMockAccountRepo(ctrl)
			txs := NewMockTransactionRepo(ctrl)
			cache := NewMockCache(ctrl)
			tc.buildStubs(accounts, txs, cache)

			var s *Service
			if tc.withCache {
				s = New(accounts, txs, cache)
			} else {
				s = New(accounts, txs, nil)
			}

			lines, err := s.StatementFor(context.Background(), "A", tc.period)
			tc.checkResponse(t, lines, err)
		})
	}
}

func TestTransactions(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	txs := NewMockTransactionRepo(ctrl)
	txs.EXPECT().
		List(gomock.Any(), domain.ListTransactionsParams{Limit: 10, Offset: 20}).
		Times(1).
		Return(testLog(), nil)

	got, err := New(nil, txs, nil).Transactions(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Len(t, got, len(testLog()))

	txs.EXPECT().
		List(gomock.Any(), domain.ListTransactionsParams{Limit: 100, Offset: int64(math.MaxInt32-1) * 100}).
		Times(1).
		Return([]domain.Transaction{}, nil)

	got, err = New(nil, txs, nil).Transactions(context.Background(), 100, math.MaxInt32)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = New(nil, txs, nil).Transactions(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestStatementOverLedger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()
	ledger := ledgerservice.New(store, currencypkg.INR)

	for _, id := range []string{"1000000000", "2000000000"} {
		_, err := store.Accounts().Create(ctx, domain.CreateAccountParams{ID: id})
		require.NoError(t, err)
	}

	a, b := "1000000000", "2000000000"

	_, err := ledger.Credit(ctx, a, dec(1000), "")
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, b, dec(500), "")
	require.NoError(t, err)
	_, err = ledger.Transfer(ctx, a, b, dec(300), "")
	require.NoError(t, err)

	s := New(store.Accounts(), store.Transactions(), nil)

	statementB, err := s.StatementFor(ctx, b, domain.Period{})
	require.NoError(t, err)
	require.Len(t, statementB, 2)
	require.Equal(t, domain.DirectionCredit, statementB[1].Direction)
	require.Equal(t, a, statementB[1].Counterparty)
	require.True(t, statementB[1].BalanceAfter.Decimal.Equal(dec(800)))

	statementA, err := s.StatementFor(ctx, a, domain.Period{})
	require.NoError(t, err)
	require.Equal(t, domain.DirectionDebit, statementA[1].Direction)
	require.True(t, statementA[1].BalanceAfter.Decimal.Equal(dec(700)))

	again, err := s.StatementFor(ctx, a, domain.Period{})
	require.NoError(t, err)

	if diff := cmp.Diff(statementA, again, decimalComp); diff != "" {
		t.Errorf("repeated StatementFor differs (-first +second):\n%s", diff)
	}

	today := time.Now().UTC()
	inRange, err := s.StatementFor(ctx, a, domain.Period{From: today.AddDate(0, 0, -1), To: today.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, inRange, 2)

	_, err = s.StatementFor(ctx, "3000000000", domain.Period{})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
