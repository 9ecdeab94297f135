// Package tokenpkg issues and verifies stateless bearer tokens.
package tokenpkg

import "time"

const minSecretKeySize = 32

// Maker is an interface for managing tokens.
type Maker interface {
	// CreateToken creates a new token for a specific subject, role and duration.
	CreateToken(subject string, role Role, duration time.Duration) (string, *Payload, error)

	// VerifyToken checks if the token is valid or not.
	VerifyToken(token string) (*Payload, error)
}
