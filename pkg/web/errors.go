package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// StatusCode maps a service error to the HTTP status reported to clients.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrWrongPIN), errors.Is(err, domain.ErrWrongCredentials),
		errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	}

	return http.StatusInternalServerError
}

// Fail writes the error response for a service error. Internal failures are
// logged and reported as errorspkg.ErrInternal.
func Fail(gctx *gin.Context, err error) {
	code := StatusCode(err)

	if code == http.StatusInternalServerError {
		gctx.JSON(code, Error(errorspkg.Internal(gctx.Request.Context(), err)))
		return
	}

	gctx.JSON(code, Error(err))
}

// BindFailed writes the 400 response for a request that failed binding.
func BindFailed(gctx *gin.Context, err error) {
	var (
		ve     validator.ValidationErrors
		errMsg string
	)

	if errors.As(err, &ve) {
		errMsg = GetErrorMsg(ve)
	} else {
		errMsg = "malformed request"
	}

	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, Response{Error: errMsg})
}
