// Package statementdelivery manages delivery layer of statements and the transaction log.
package statementdelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// DateLayout is the format of the statement period query parameters.
const DateLayout = "2006-01-02"

// Service provides service layer interface needed by statement delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package statementdelivery
type Service interface {
	StatementFor(ctx context.Context, accountID string, period domain.Period) ([]domain.StatementLine, error)
	Transactions(ctx context.Context, pageSize, pageID int32) ([]domain.Transaction, error)
}

// Handler facilitates statement delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns statement handler.
func NewHandler(s Service) Handler {
	return Handler{service: s}
}

type statementURI struct {
	ID string `uri:"id" binding:"required,numeric,len=10"`
}

type statementQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

type statementData struct {
	AccountID string                 `json:"account_id"`
	Lines     []domain.StatementLine `json:"lines"`
}

// Statement handles http request to get the statement of an account,
// optionally limited to the days between from and to.
func (h *Handler) Statement(gctx *gin.Context) {
	var uri statementURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	var query statementQuery
	if err := gctx.ShouldBindQuery(&query); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	if !middleware.CanAccess(gctx, uri.ID) {
		gctx.JSON(http.StatusForbidden, web.Error(middleware.ErrForbidden))
		return
	}

	var period domain.Period
	if query.From != "" {
		period.From, _ = time.Parse(DateLayout, query.From)
	}

	if query.To != "" {
		period.To, _ = time.Parse(DateLayout, query.To)
	}

	lines, err := h.service.StatementFor(gctx.Request.Context(), uri.ID, period)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	if lines == nil {
		lines = []domain.StatementLine{}
	}

	gctx.JSON(http.StatusOK, web.Response{Data: statementData{AccountID: uri.ID, Lines: lines}})
}

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

type transactionsData struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// Transactions handles http request to page through the whole transaction log.
func (h *Handler) Transactions(gctx *gin.Context) {
	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	records, err := h.service.Transactions(gctx.Request.Context(), req.PageSize, req.PageID)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	if records == nil {
		records = []domain.Transaction{}
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionsData{records}})
}
