package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a refresh token issued at login.
//
// Subject is the account id of a holder or the username of the administrator.
type Session struct {
	ID           uuid.UUID `json:"id"`
	Subject      string    `json:"subject"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"-"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateSessionParams contains the input parameters of session creation.
type CreateSessionParams struct {
	ID           uuid.UUID
	Subject      string
	Role         string
	RefreshToken string
	UserAgent    string
	ClientIP     string
	ExpiresAt    time.Time
}

// LoginParams describes the principal a session is opened for.
type LoginParams struct {
	Subject   string
	Role      string
	UserAgent string
	ClientIP  string
}

// Tokens holds the token pair returned by a login.
type Tokens struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	Session               Session
}
