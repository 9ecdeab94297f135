package statementdelivery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if err := web.RegisterValidators(); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func TestStatement(t *testing.T) {
	owner := randompkg.AccountNumber()
	ts := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	lines := []domain.StatementLine{
		{
			TransactionID: "TXN1",
			Direction:     domain.DirectionCredit,
			Counterparty:  domain.External,
			Amount:        decimal.NewFromInt(1000),
			BalanceAfter:  decimal.NewNullDecimal(decimal.NewFromInt(1000)),
			Method:        domain.MethodCashDeposit,
			Date:          "2024-05-10",
			Time:          "09:00:00",
			Timestamp:     ts,
		},
	}

	testCases := []struct {
		name           string
		query          string
		subject        string
		role           tokenpkg.Role
		buildStubs     func(service *MockService)
		wantStatusCode int
		wantError      string
		wantLines      int
	}{
		{
			name:    "Owner",
			subject: owner,
			role:    tokenpkg.RoleHolder,
			buildStubs: func(service *MockService) {
				service.EXPECT().StatementFor(gomock.Any(), owner, domain.Period{}).Times(1).Return(lines, nil)
			},
			wantStatusCode: http.StatusOK,
			wantLines:      1,
		},
		{
			name:    "Period",
			query:   "?from=2024-05-01&to=2024-05-31",
			subject: "admin",
			role:    tokenpkg.RoleAdmin,
			buildStubs: func(service *MockService) {
				period := domain.Period{
					From: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
					To:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
				}
				service.EXPECT().StatementFor(gomock.Any(), owner, period).Times(1).Return(lines, nil)
			},
			wantStatusCode: http.StatusOK,
			wantLines:      1,
		},
		{
			name:    "Empty",
			subject: owner,
			role:    tokenpkg.RoleHolder,
			buildStubs: func(service *MockService) {
				service.EXPECT().StatementFor(gomock.Any(), owner, domain.Period{}).Times(1).Return(nil, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:    "InvalidPeriod",
			query:   "?from=2024-05-31&to=2024-05-01",
			subject: owner,
			role:    tokenpkg.RoleHolder,
			buildStubs: func(service *MockService) {
				service.EXPECT().StatementFor(gomock.Any(), owner, gomock.Any()).Times(1).Return(nil, domain.ErrInvalidPeriod)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrInvalidPeriod.Error(),
		},
		{
			name:    "BadDate",
			query:   "?from=31-05-2024",
			subject: owner,
			role:    tokenpkg.RoleHolder,
			buildStubs: func(service *MockService) {
				service.EXPECT().StatementFor(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "From must match the format 2006-01-02",
		},
		{
			name:    "OtherHolder",
			subject: randompkg.AccountNumber(),
			role:    tokenpkg.RoleHolder,
			buildStubs: func(service *MockService) {
				service.EXPECT().StatementFor(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusForbidden,
			wantError:      middleware.ErrForbidden.Error(),
		},
		{
			name:    "NotFound",
			subject: "admin",
			role:    tokenpkg.RoleAdmin,
			buildStubs: func(service *MockService) {
				service.EXPECT().StatementFor(gomock.Any(), owner, domain.Period{}).Times(1).Return(nil, domain.ErrAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrAccountNotFound.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
			require.NoError(t, err)

			h := NewHandler(service)

			server := gin.New()
			server.GET("/accounts/:id/statement", middleware.AuthMiddleware(tokenMaker), h.Statement)

			req, err := http.NewRequest(http.MethodGet, "/accounts/"+owner+"/statement"+tc.query, nil)
			require.NoError(t, err)

			err = middleware.AddRoleAuthorization(req, tokenMaker, middleware.AuthTypeBearer, tc.subject, tc.role, time.Minute)
			require.NoError(t, err)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			require.Equal(t, tc.wantStatusCode, recorder.Code)

			res := web.Response{Data: &statementData{}}
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))
			require.Equal(t, tc.wantError, res.Error)

			if tc.wantStatusCode != http.StatusOK {
				return
			}

			got := res.Data.(*statementData)
			require.Equal(t, owner, got.AccountID)
			require.NotNil(t, got.Lines)
			require.Len(t, got.Lines, tc.wantLines)

			if tc.wantLines > 0 {
				require.Equal(t, domain.DirectionCredit, got.Lines[0].Direction)
				require.True(t, got.Lines[0].BalanceAfter.Decimal.Equal(decimal.NewFromInt(1000)))
			}
		})
	}
}

func TestTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	service.EXPECT().
		Transactions(gomock.Any(), int32(10), int32(2)).
		Times(1).
		Return([]domain.Transaction{{ID: "TXN1"}, {ID: "TXN2"}}, nil)

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	h := NewHandler(service)

	server := gin.New()
	server.GET("/admin/transactions", middleware.AuthMiddleware(tokenMaker), middleware.RequireRole(tokenpkg.RoleAdmin), h.Transactions)

	for _, tc := range []struct {
		url  string
		want int
	}{
		{"/admin/transactions?page_id=2&page_size=10", http.StatusOK},
		{"/admin/transactions?page_id=1&page_size=1000", http.StatusBadRequest},
	} {
		req, err := http.NewRequest(http.MethodGet, tc.url, nil)
		require.NoError(t, err)
		require.NoError(t, middleware.AddRoleAuthorization(req, tokenMaker, middleware.AuthTypeBearer, "admin", tokenpkg.RoleAdmin, time.Minute))

		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, req)

		require.Equal(t, tc.want, recorder.Code, tc.url)
	}
}
