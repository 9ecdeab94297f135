// Package sessiondelivery manages delivery layer of sessions.
package sessiondelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by session delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package sessiondelivery
type Service interface {
	RenewAccessToken(ctx context.Context, refreshToken string) (string, time.Time, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// Handler facilitates session delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns session handler.
func NewHandler(ss Service) *Handler {
	return &Handler{
		service: ss,
	}
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RenewAccessToken handles http request to renew access token.
func (h *Handler) RenewAccessToken(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req refreshTokenRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	accessToken, accessTokenExpiresAt, err := h.service.RenewAccessToken(ctx, req.RefreshToken)
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: accessTokenExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Revoke handles http request to block the session of a refresh token.
func (h *Handler) Revoke(gctx *gin.Context) {
	var req refreshTokenRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	if err := h.service.Revoke(gctx.Request.Context(), req.RefreshToken); err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}
