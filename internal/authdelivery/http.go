// Package authdelivery opens sessions for account holders and administrators.
package authdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by auth delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package authdelivery
type Service interface {
	VerifyPIN(ctx context.Context, id, pin string) (domain.Account, error)
}

// Sessions issues the token pair of a new session.
type Sessions interface {
	Create(ctx context.Context, arg domain.LoginParams) (domain.Tokens, error)
}

// Admin holds the credentials of the single administrator.
type Admin struct {
	Username     string
	PasswordHash string
}

// Handler facilitates auth delivery layer logic.
type Handler struct {
	service  Service
	sessions Sessions
	admin    Admin
}

// NewHandler returns auth handler.
func NewHandler(s Service, sessions Sessions, admin Admin) Handler {
	return Handler{
		service:  s,
		sessions: sessions,
		admin:    admin,
	}
}

type loginRequest struct {
	AccountID string `json:"account_id" binding:"required,numeric,len=10"`
	PIN       string `json:"pin" binding:"required,pin"`
}

type data struct {
	Account domain.Account `json:"account"`
}

// Login handles http request of an account holder to open a session.
func (h *Handler) Login(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req loginRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	account, err := h.service.VerifyPIN(ctx, req.AccountID, req.PIN)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			err = domain.ErrWrongCredentials
		}

		web.Fail(gctx, err)

		return
	}

	h.respondToken(gctx, account.ID, tokenpkg.RoleHolder, data{account})
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// AdminLogin handles http request of the administrator to open a session.
func (h *Handler) AdminLogin(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req adminLoginRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		web.BindFailed(gctx, err)
		return
	}

	if h.admin.PasswordHash == "" || req.Username != h.admin.Username {
		web.Fail(gctx, domain.ErrWrongCredentials)
		return
	}

	if err := passpkg.Check(req.Password, h.admin.PasswordHash); err != nil {
		zerolog.Ctx(ctx).Warn().Str("username", req.Username).Msg("admin login failed")
		web.Fail(gctx, domain.ErrWrongCredentials)

		return
	}

	h.respondToken(gctx, req.Username, tokenpkg.RoleAdmin, nil)
}

func (h *Handler) respondToken(gctx *gin.Context, subject string, role tokenpkg.Role, payloadData any) {
	tokens, err := h.sessions.Create(gctx.Request.Context(), domain.LoginParams{
		Subject:   subject,
		Role:      string(role),
		UserAgent: gctx.Request.UserAgent(),
		ClientIP:  gctx.ClientIP(),
	})
	if err != nil {
		web.Fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{
		AccessToken:           tokens.AccessToken,
		AccessTokenExpiresAt:  tokens.AccessTokenExpiresAt.UTC().Format(time.RFC3339),
		RefreshToken:          tokens.RefreshToken,
		RefreshTokenExpiresAt: tokens.RefreshTokenExpiresAt.UTC().Format(time.RFC3339),
		Data:                  payloadData,
	})
}
