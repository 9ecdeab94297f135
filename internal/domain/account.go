package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

// Account statuses.
const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// Account holds the balance and owner identity of a ledger account.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address"`
	HashedPIN string          `json:"-"`
	Balance   decimal.Decimal `json:"balance"`
	Status    AccountStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsActive reports whether the account may take part in movements.
func (a Account) IsActive() bool {
	return a.Status == AccountActive
}

// CreateAccountParams holds data nedeed for Account creation.
// New accounts always start active with zero balance.
type CreateAccountParams struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Address   string
	HashedPIN string
}
