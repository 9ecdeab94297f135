// Package ticketdelivery manages delivery layer of passbook and chequebook requests.
package ticketdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by ticket delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ticketdelivery
type Service interface {
	Submit(ctx context.Context, accountID string, kind domain.TicketKind) (domain.Ticket, error)
	Approve(ctx context.Context, id uuid.UUID) (domain.Ticket, error)
	Reject(ctx context.Context, id uuid.UUID) (domain.Ticket, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Ticket, error)
	List(ctx context.Context, pageSize, pageID int32) ([]domain.Ticket, error)
}

// Handler facilitates ticket delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ticket handler.
func NewHandler(s Service) Handler {
	return Handler{service: s}
}

type data struct {
	Ticket domain.Ticket `json:"ticket"`
}

type dataTickets struct {
	Tickets []domain.Ticket `json:"tickets"`
}

type submitRequest struct {
	Kind string `json:"kind" binding:"required,ticketkind"`
}

// Submit handles http request of a holder to raise a request.
func (h *Handler) Submit(gctx *gin.Context) {
	var req submitRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	payload, ok := middleware.Payload(gctx)
	if !ok {
		gctx.JSON(http.StatusForbidden, web.Error(middleware.ErrForbidden))
		return
	}

	ticket, err := h.service.Submit(gctx.Request.Context(), payload.Username, domain.TicketKind(req.Kind))
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: data{ticket}})
}

// Mine handles http request of a holder to list own requests.
func (h *Handler) Mine(gctx *gin.Context) {
	payload, ok := middleware.Payload(gctx)
	if !ok {
		gctx.JSON(http.StatusForbidden, web.Error(middleware.ErrForbidden))
		return
	}

	tickets, err := h.service.ListByAccount(gctx.Request.Context(), payload.Username)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	if tickets == nil {
		tickets = []domain.Ticket{}
	}

	gctx.JSON(http.StatusOK, web.Response{Data: dataTickets{tickets}})
}

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

// List handles http request to page through all requests.
func (h *Handler) List(gctx *gin.Context) {
	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	tickets, err := h.service.List(gctx.Request.Context(), req.PageSize, req.PageID)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: dataTickets{tickets}})
}

type decideRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Approve handles http request to approve a pending request.
func (h *Handler) Approve(gctx *gin.Context) {
	h.decide(gctx, h.service.Approve)
}

// Reject handles http request to reject a pending request.
func (h *Handler) Reject(gctx *gin.Context) {
	h.decide(gctx, h.service.Reject)
}

func (h *Handler) decide(gctx *gin.Context, decide func(ctx context.Context, id uuid.UUID) (domain.Ticket, error)) {
	var req decideRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	ticket, err := decide(gctx.Request.Context(), uuid.MustParse(req.ID))
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{ticket}})
}
