// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/accountservice"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Register(ctx context.Context, arg accountservice.RegisterParams) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
	List(ctx context.Context, pageSize, pageID int32) ([]domain.Account, error)
	Deactivate(ctx context.Context, id string) (domain.Account, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) Handler {
	return Handler{service: as}
}

type data struct {
	Account domain.Account `json:"account"`
}

type registerRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"required,numeric,min=7,max=15"`
	Address        string `json:"address" binding:"required"`
	PIN            string `json:"pin" binding:"required,pin"`
	InitialDeposit string `json:"initial_deposit" binding:"omitempty,amount"`
}

// Register handles http request to open an account.
func (h *Handler) Register(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req registerRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	deposit := decimal.Zero
	if req.InitialDeposit != "" {
		deposit = decimal.RequireFromString(req.InitialDeposit)
	}

	account, err := h.service.Register(ctx, accountservice.RegisterParams{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		PIN:            req.PIN,
		InitialDeposit: deposit,
	})
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	zerolog.Ctx(ctx).Info().Str("account", account.ID).Msg("account registered")

	gctx.JSON(http.StatusCreated, web.Response{Data: data{account}})
}

type getRequest struct {
	ID string `uri:"id" binding:"required,numeric,len=10"`
}

// Get handles http request to get account. Holders may only read their own account.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	if !middleware.CanAccess(gctx, req.ID) {
		gctx.JSON(http.StatusForbidden, web.Error(middleware.ErrForbidden))
		return
	}

	account, err := h.service.Get(ctx, req.ID)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{account}})
}

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

type dataAccounts struct {
	Accounts []domain.Account `json:"accounts"`
}

// List handles http request to list accounts.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	accounts, err := h.service.List(ctx, req.PageSize, req.PageID)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: dataAccounts{accounts}})
}

// Deactivate handles http request to deactivate an account.
func (h *Handler) Deactivate(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	account, err := h.service.Deactivate(ctx, req.ID)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	zerolog.Ctx(ctx).Info().Str("account", account.ID).Msg("account deactivated")

	gctx.JSON(http.StatusOK, web.Response{Data: data{account}})
}
