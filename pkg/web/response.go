// Package web defines common components for a web application.
package web

import (
	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken           string `json:"access_token,omitempty"`
	AccessTokenExpiresAt  string `json:"access_token_expires_at,omitempty"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt string `json:"refresh_token_expires_at,omitempty"`
	Data                  any    `json:"data,omitempty"`
	Error                 string `json:"error,omitempty"`
}

// Error wraps a given err into json frinedly response.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// GetErrorMsg converts the first validation error into a human readable message.
func GetErrorMsg(ve validator.ValidationErrors) string {
	if len(ve) == 0 {
		return ""
	}

	fe := ve[0]

	switch fe.Tag() {
	case "required":
		return fe.Field() + " field is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "len":
		return fe.Field() + " must be " + fe.Param() + " characters long"
	case "email":
		return fe.Field() + " must be a valid email"
	case "numeric":
		return fe.Field() + " must contain digits only"
	case "amount":
		return fe.Field() + " must be a positive decimal number"
	case "ticketkind":
		return fe.Field() + " must be passbook or chequebook"
	case "pin":
		return fe.Field() + " must be 4 to 6 digits"
	case "datetime":
		return fe.Field() + " must match the format " + fe.Param()
	}

	return fe.Field() + " is invalid"
}
