package ledgerdelivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
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
	"github.com/go-petr/pet-ledger/pkg/currencypkg"
	"github.com/go-petr/pet-ledger/pkg/qrpkg"
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

type decimalMatcher struct {
	want decimal.Decimal
}

func amountEq(s string) gomock.Matcher {
	return decimalMatcher{want: decimal.RequireFromString(s)}
}

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string {
	return fmt.Sprintf("is equal to %s", m.want)
}

type fixture struct {
	service    *MockService
	accounts   *MockPINVerifier
	tokenMaker tokenpkg.Maker
	server     *gin.Engine
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	accounts := NewMockPINVerifier(ctrl)

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	h := NewHandler(service, accounts, currencypkg.INR)

	server := gin.New()

	holder := server.Group("/", middleware.AuthMiddleware(tokenMaker))
	holder.GET("/accounts/:id/qr", h.QR)
	holder.POST("/transfers", middleware.RequireRole(tokenpkg.RoleHolder), h.Transfer)
	holder.POST("/transfers/qr", middleware.RequireRole(tokenpkg.RoleHolder), h.QRTransfer)

	admin := server.Group("/admin", middleware.AuthMiddleware(tokenMaker), middleware.RequireRole(tokenpkg.RoleAdmin))
	admin.POST("/accounts/:id/credit", h.Credit)
	admin.POST("/accounts/:id/debit", h.Debit)

	return fixture{
		service:    service,
		accounts:   accounts,
		tokenMaker: tokenMaker,
		server:     server,
	}
}

func (f fixture) do(t *testing.T, method, path string, body any, subject string, role tokenpkg.Role) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)

	err = middleware.AddRoleAuthorization(req, f.tokenMaker, middleware.AuthTypeBearer, subject, role, time.Minute)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)

	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var res web.Response
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))

	return res.Error
}

func TestTransfer(t *testing.T) {
	from := randompkg.AccountNumber()
	to := randompkg.AccountNumber()

	testCases := []struct {
		name           string
		body           gin.H
		role           tokenpkg.Role
		buildStubs     func(f fixture)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			body: gin.H{"to_account_id": to, "amount": "300", "pin": "1234"},
			role: tokenpkg.RoleHolder,
			buildStubs: func(f fixture) {
				gomock.InOrder(
					f.accounts.EXPECT().VerifyPIN(gomock.Any(), from, "1234").Times(1).Return(domain.Account{ID: from}, nil),
					f.service.EXPECT().
						Transfer(gomock.Any(), from, to, amountEq("300"), domain.MethodTransfer).
						Times(1).
						Return(domain.TransferResult{
							FromAccount: domain.Account{ID: from, Balance: decimal.NewFromInt(700)},
							ToAccount:   domain.Account{ID: to, Balance: decimal.NewFromInt(800)},
							Transaction: domain.Transaction{ID: "TXN1", Kind: domain.KindTransfer},
						}, nil),
				)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "WrongPIN",
			body: gin.H{"to_account_id": to, "amount": "300", "pin": "9999"},
			role: tokenpkg.RoleHolder,
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), from, "9999").Times(1).Return(domain.Account{}, domain.ErrWrongPIN)
				f.service.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      domain.ErrWrongPIN.Error(),
		},
		{
			name: "InsufficientFunds",
			body: gin.H{"to_account_id": to, "amount": "5000", "pin": "1234"},
			role: tokenpkg.RoleHolder,
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), from, "1234").Times(1).Return(domain.Account{ID: from}, nil)
				f.service.EXPECT().
					Transfer(gomock.Any(), from, to, amountEq("5000"), domain.MethodTransfer).
					Times(1).
					Return(domain.TransferResult{}, domain.ErrInsufficientFunds)
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      domain.ErrInsufficientFunds.Error(),
		},
		{
			name: "SameAccount",
			body: gin.H{"to_account_id": from, "amount": "1", "pin": "1234"},
			role: tokenpkg.RoleHolder,
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), from, "1234").Times(1).Return(domain.Account{ID: from}, nil)
				f.service.EXPECT().
					Transfer(gomock.Any(), from, from, amountEq("1"), domain.MethodTransfer).
					Times(1).
					Return(domain.TransferResult{}, domain.ErrSameAccount)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrSameAccount.Error(),
		},
		{
			name: "InvalidAmount",
			body: gin.H{"to_account_id": to, "amount": "0", "pin": "1234"},
			role: tokenpkg.RoleHolder,
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a positive decimal number",
		},
		{
			name: "AdminToken",
			body: gin.H{"to_account_id": to, "amount": "10", "pin": "1234"},
			role: tokenpkg.RoleAdmin,
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusForbidden,
			wantError:      middleware.ErrForbidden.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			tc.buildStubs(f)

			recorder := f.do(t, http.MethodPost, "/transfers", tc.body, from, tc.role)
			require.Equal(t, tc.wantStatusCode, recorder.Code)

			if tc.wantStatusCode != http.StatusOK {
				require.Equal(t, tc.wantError, decodeError(t, recorder))
				return
			}

			res := web.Response{Data: &transferData{}}
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))

			got := res.Data.(*transferData)
			require.Equal(t, from, got.Account.ID)
			require.True(t, got.Account.Balance.Equal(decimal.NewFromInt(700)))
			require.Equal(t, "TXN1", got.Transaction.ID)
		})
	}
}

func TestQRTransfer(t *testing.T) {
	from := randompkg.AccountNumber()
	to := randompkg.AccountNumber()

	withAmount := qrpkg.PaymentRequest{To: to, Amount: decimal.RequireFromString("42.50"), Currency: currencypkg.INR}.URI()
	openAmount := qrpkg.PaymentRequest{To: to}.URI()
	foreign := qrpkg.PaymentRequest{To: to, Amount: decimal.NewFromInt(1), Currency: currencypkg.USD}.URI()

	testCases := []struct {
		name           string
		body           gin.H
		buildStubs     func(f fixture)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "AmountFromRequest",
			body: gin.H{"uri": withAmount, "amount": "1", "pin": "1234"},
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), from, "1234").Times(1).Return(domain.Account{ID: from}, nil)
				f.service.EXPECT().
					Transfer(gomock.Any(), from, to, amountEq("42.5"), domain.MethodQR).
					Times(1).
					Return(domain.TransferResult{FromAccount: domain.Account{ID: from}}, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "AmountFromBody",
			body: gin.H{"uri": openAmount, "amount": "15", "pin": "1234"},
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), from, "1234").Times(1).Return(domain.Account{ID: from}, nil)
				f.service.EXPECT().
					Transfer(gomock.Any(), from, to, amountEq("15"), domain.MethodQR).
					Times(1).
					Return(domain.TransferResult{FromAccount: domain.Account{ID: from}}, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "BadURI",
			body: gin.H{"uri": "https://example.com/pay", "pin": "1234"},
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      qrpkg.ErrInvalidURI.Error(),
		},
		{
			name: "SubCentAmount",
			body: gin.H{"uri": "ledger://pay?to=" + to + "&amount=0.00005", "pin": "1234"},
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				f.service.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      qrpkg.ErrInvalidAmount.Error(),
		},
		{
			name: "ForeignCurrency",
			body: gin.H{"uri": foreign, "pin": "1234"},
			buildStubs: func(f fixture) {
				f.accounts.EXPECT().VerifyPIN(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      ErrCurrencyMismatch.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			tc.buildStubs(f)

			recorder := f.do(t, http.MethodPost, "/transfers/qr", tc.body, from, tokenpkg.RoleHolder)
			require.Equal(t, tc.wantStatusCode, recorder.Code)

			if tc.wantStatusCode != http.StatusOK {
				require.Equal(t, tc.wantError, decodeError(t, recorder))
			}
		})
	}
}

func TestQR(t *testing.T) {
	owner := randompkg.AccountNumber()

	f := newFixture(t)

	recorder := f.do(t, http.MethodGet, "/accounts/"+owner+"/qr?amount=99.99", nil, owner, tokenpkg.RoleHolder)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "image/png", recorder.Header().Get("Content-Type"))

	img, err := png.Decode(recorder.Body)
	require.NoError(t, err)
	require.Equal(t, qrpkg.DefaultSize, img.Bounds().Dx())

	recorder = f.do(t, http.MethodGet, "/accounts/"+owner+"/qr", nil, randompkg.AccountNumber(), tokenpkg.RoleHolder)
	require.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = f.do(t, http.MethodGet, "/accounts/"+owner+"/qr?amount=-1", nil, owner, tokenpkg.RoleHolder)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAdminMovements(t *testing.T) {
	accountID := randompkg.AccountNumber()

	f := newFixture(t)

	f.service.EXPECT().
		Credit(gomock.Any(), accountID, amountEq("1000"), "").
		Times(1).
		Return(domain.MovementResult{Account: domain.Account{ID: accountID, Balance: decimal.NewFromInt(1000)}}, nil)
	f.service.EXPECT().
		Debit(gomock.Any(), accountID, amountEq("250.25"), domain.MethodCash).
		Times(1).
		Return(domain.MovementResult{Account: domain.Account{ID: accountID, Balance: decimal.RequireFromString("749.75")}}, nil)
	f.service.EXPECT().
		Debit(gomock.Any(), accountID, amountEq("5000"), "").
		Times(1).
		Return(domain.MovementResult{}, domain.ErrInsufficientFunds)

	recorder := f.do(t, http.MethodPost, "/admin/accounts/"+accountID+"/credit", gin.H{"amount": "1000"}, "admin", tokenpkg.RoleAdmin)
	require.Equal(t, http.StatusOK, recorder.Code)

	res := web.Response{Data: &domain.MovementResult{}}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))
	require.True(t, res.Data.(*domain.MovementResult).Account.Balance.Equal(decimal.NewFromInt(1000)))

	recorder = f.do(t, http.MethodPost, "/admin/accounts/"+accountID+"/debit", gin.H{"amount": "250.25", "method": domain.MethodCash}, "admin", tokenpkg.RoleAdmin)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = f.do(t, http.MethodPost, "/admin/accounts/"+accountID+"/debit", gin.H{"amount": "5000"}, "admin", tokenpkg.RoleAdmin)
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	require.Equal(t, domain.ErrInsufficientFunds.Error(), decodeError(t, recorder))

	recorder = f.do(t, http.MethodPost, "/admin/accounts/"+accountID+"/credit", gin.H{"amount": "1000"}, accountID, tokenpkg.RoleHolder)
	require.Equal(t, http.StatusForbidden, recorder.Code)
}
