// Package middleware holds gin middlewares shared by the delivery packages.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
	"github.com/rs/zerolog"
)

// Authorization header parts and the gin context key of the verified payload.
const (
	AuthHeaderKey  = "authorization"
	AuthTypeBearer = "bearer"
	AuthPayloadKey = "authorization_payload"
)

// Authorization errors.
var (
	ErrAuthHeaderNotFound  = errors.New("authorization header is not provided")
	ErrBadAuthHeaderFormat = errors.New("invalid authorization header format")
	ErrUnsupportedAuthType = errors.New("unsupported authorization type")
	ErrForbidden           = errors.New("access denied")
)

// AddAuthorization issues a holder token for subject and sets it on the request.
func AddAuthorization(r *http.Request, maker tokenpkg.Maker, authType, subject string, duration time.Duration) error {
	return AddRoleAuthorization(r, maker, authType, subject, tokenpkg.RoleHolder, duration)
}

// AddRoleAuthorization issues a token with the given role and sets it on the request.
func AddRoleAuthorization(
	r *http.Request,
	maker tokenpkg.Maker,
	authType, subject string,
	role tokenpkg.Role,
	duration time.Duration,
) error {
	token, _, err := maker.CreateToken(subject, role, duration)
	if err != nil {
		return err
	}

	r.Header.Set(AuthHeaderKey, fmt.Sprintf("%s %s", authType, token))

	return nil
}

// AuthMiddleware verifies the bearer token and stores its payload under AuthPayloadKey.
func AuthMiddleware(maker tokenpkg.Maker) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		l := zerolog.Ctx(gctx.Request.Context())

		authHeader := gctx.GetHeader(AuthHeaderKey)
		if len(authHeader) == 0 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrAuthHeaderNotFound))
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrBadAuthHeaderFormat))
			return
		}

		authType := strings.ToLower(fields[0])
		if authType != AuthTypeBearer {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrUnsupportedAuthType))
			return
		}

		payload, err := maker.VerifyToken(fields[1])
		if err != nil {
			l.Info().Err(err).Msg("token rejected")
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(err))

			return
		}

		gctx.Set(AuthPayloadKey, payload)
		gctx.Next()
	}
}

// RequireRole lets through only tokens carrying the role. It must run after AuthMiddleware.
func RequireRole(role tokenpkg.Role) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		payload, ok := Payload(gctx)
		if !ok || payload.Role != role {
			gctx.AbortWithStatusJSON(http.StatusForbidden, web.Error(ErrForbidden))
			return
		}

		gctx.Next()
	}
}

// Payload returns the verified token payload of the request.
func Payload(gctx *gin.Context) (*tokenpkg.Payload, bool) {
	v, ok := gctx.Get(AuthPayloadKey)
	if !ok {
		return nil, false
	}

	payload, ok := v.(*tokenpkg.Payload)

	return payload, ok
}

// CanAccess reports whether the caller may read the account: admins read any
// account, holders only their own.
func CanAccess(gctx *gin.Context, accountID string) bool {
	payload, ok := Payload(gctx)
	if !ok {
		return false
	}

	return payload.Role == tokenpkg.RoleAdmin || payload.Username == accountID
}
