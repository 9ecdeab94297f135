// Package ledgerdelivery manages delivery layer of money movements.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/qrpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// ErrCurrencyMismatch indicates a payment request in a currency the ledger does not keep.
var ErrCurrencyMismatch = errors.New("payment request currency does not match the ledger")

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Credit(ctx context.Context, accountID string, amount decimal.Decimal, method string) (domain.MovementResult, error)
	Debit(ctx context.Context, accountID string, amount decimal.Decimal, method string) (domain.MovementResult, error)
	Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, method string) (domain.TransferResult, error)
}

// PINVerifier checks the PIN of the paying account.
type PINVerifier interface {
	VerifyPIN(ctx context.Context, id, pin string) (domain.Account, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service  Service
	accounts PINVerifier
	currency string
}

// NewHandler returns ledger handler.
func NewHandler(s Service, pv PINVerifier, currency string) Handler {
	return Handler{
		service:  s,
		accounts: pv,
		currency: currency,
	}
}

type transferData struct {
	Account     domain.Account     `json:"account"`
	Transaction domain.Transaction `json:"transaction"`
}

type transferRequest struct {
	ToAccountID string `json:"to_account_id" binding:"required,numeric,len=10"`
	Amount      string `json:"amount" binding:"required,amount"`
	PIN         string `json:"pin" binding:"required,pin"`
}

// Transfer handles http request of a holder to send money to another account.
func (h *Handler) Transfer(gctx *gin.Context) {
	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	h.transfer(gctx, req.ToAccountID, decimal.RequireFromString(req.Amount), req.PIN, domain.MethodTransfer)
}

type qrTransferRequest struct {
	URI    string `json:"uri" binding:"required"`
	Amount string `json:"amount" binding:"omitempty,amount"`
	PIN    string `json:"pin" binding:"required,pin"`
}

// QRTransfer handles http request to pay a scanned payment request.
// The amount of the request wins over the amount of the body.
func (h *Handler) QRTransfer(gctx *gin.Context) {
	var req qrTransferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	pr, err := qrpkg.ParseURI(req.URI)
	if err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	if pr.Currency != "" && pr.Currency != h.currency {
		gctx.JSON(http.StatusBadRequest, web.Error(ErrCurrencyMismatch))
		return
	}

	amount := pr.Amount
	if amount.IsZero() && req.Amount != "" {
		amount = decimal.RequireFromString(req.Amount)
	}

	h.transfer(gctx, pr.To, amount, req.PIN, domain.MethodQR)
}

func (h *Handler) transfer(gctx *gin.Context, toID string, amount decimal.Decimal, pin, method string) {
	ctx := gctx.Request.Context()

	payload, ok := middleware.Payload(gctx)
	if !ok {
		gctx.JSON(http.StatusForbidden, web.Error(middleware.ErrForbidden))
		return
	}

	if _, err := h.accounts.VerifyPIN(ctx, payload.Username, pin); err != nil {
		web.Fail(gctx, err)
		return
	}

	result, err := h.service.Transfer(ctx, payload.Username, toID, amount, method)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{
		Data: transferData{Account: result.FromAccount, Transaction: result.Transaction},
	})
}

type qrRequest struct {
	ID string `uri:"id" binding:"required,numeric,len=10"`
}

type qrQuery struct {
	Amount string `form:"amount" binding:"omitempty,amount"`
	Size   int    `form:"size" binding:"omitempty,min=64,max=1024"`
}

// QR handles http request to render a payment request to the account as PNG.
func (h *Handler) QR(gctx *gin.Context) {
	var req qrRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	var query qrQuery
	if err := gctx.ShouldBindQuery(&query); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	if !middleware.CanAccess(gctx, req.ID) {
		gctx.JSON(http.StatusForbidden, web.Error(middleware.ErrForbidden))
		return
	}

	pr := qrpkg.PaymentRequest{To: req.ID, Currency: h.currency}
	if query.Amount != "" {
		pr.Amount = decimal.RequireFromString(query.Amount)
	}

	png, err := pr.PNG(query.Size)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.Data(http.StatusOK, "image/png", png)
}

type movementURI struct {
	ID string `uri:"id" binding:"required,numeric,len=10"`
}

type movementRequest struct {
	Amount string `json:"amount" binding:"required,amount"`
	Method string `json:"method" binding:"omitempty,max=64"`
}

// Credit handles http request of an administrator to deposit money.
func (h *Handler) Credit(gctx *gin.Context) {
	h.movement(gctx, h.service.Credit)
}

// Debit handles http request of an administrator to withdraw money.
func (h *Handler) Debit(gctx *gin.Context) {
	h.movement(gctx, h.service.Debit)
}

func (h *Handler) movement(
	gctx *gin.Context,
	move func(ctx context.Context, accountID string, amount decimal.Decimal, method string) (domain.MovementResult, error),
) {
	var uri movementURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	var req movementRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	result, err := move(gctx.Request.Context(), uri.ID, decimal.RequireFromString(req.Amount), req.Method)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: result})
}
