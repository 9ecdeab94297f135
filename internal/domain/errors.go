// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below wraps exactly one of them,
// so callers can match either level with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	// ErrTransactionNotFound indicates that the transaction is not found.
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	// ErrTicketNotFound indicates that the request ticket is not found.
	ErrTicketNotFound = fmt.Errorf("request %w", ErrNotFound)
	// ErrSessionNotFound indicates that the session is not found.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)

	// ErrInvalidAmount indicates a non-positive amount or one finer than a cent.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive with at most two decimals", ErrInvalidArgument)
	// ErrSameAccount indicates a transfer to the sending account.
	ErrSameAccount = fmt.Errorf("%w: cannot transfer to the same account", ErrInvalidArgument)
	// ErrAccountInactive indicates a movement against a deactivated account.
	ErrAccountInactive = fmt.Errorf("%w: account is inactive", ErrInvalidArgument)
	// ErrInvalidTicketKind indicates an unknown request kind.
	ErrInvalidTicketKind = fmt.Errorf("%w: unknown request kind", ErrInvalidArgument)
	// ErrInvalidPeriod indicates a statement period that ends before it starts.
	ErrInvalidPeriod = fmt.Errorf("%w: period start is after its end", ErrInvalidArgument)
	// ErrInvalidPIN indicates a PIN that is not 4 to 6 digits.
	ErrInvalidPIN = fmt.Errorf("%w: pin must be 4 to 6 digits", ErrInvalidArgument)

	// ErrDuplicateTransaction indicates a transaction id collision in the log.
	ErrDuplicateTransaction = fmt.Errorf("%w: duplicate transaction id", ErrIntegrityViolation)
	// ErrInvalidRecord indicates a transaction record with an impossible shape.
	ErrInvalidRecord = fmt.Errorf("%w: invalid transaction record", ErrIntegrityViolation)

	// ErrDuplicateAccount indicates that the account id is taken.
	ErrDuplicateAccount = fmt.Errorf("%w: account already exists", ErrConflict)
	// ErrInvalidTransition indicates a decision on an already decided ticket.
	ErrInvalidTransition = fmt.Errorf("%w: request already decided", ErrConflict)

	// ErrWrongPIN indicates a PIN that does not match the account.
	ErrWrongPIN = errors.New("wrong pin")
	// ErrWrongCredentials indicates a failed admin login.
	ErrWrongCredentials = errors.New("wrong credentials")

	// Session errors returned when a refresh token cannot be renewed.
	ErrBlockedSession         = fmt.Errorf("%w: blocked session", ErrUnauthenticated)
	ErrMismatchedRefreshToken = fmt.Errorf("%w: mismatched session token", ErrUnauthenticated)
	ErrInvalidSessionSubject  = fmt.Errorf("%w: incorrect session subject", ErrUnauthenticated)
	ErrExpiredSession         = fmt.Errorf("%w: expired session", ErrUnauthenticated)
)
