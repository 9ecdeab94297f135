package domain

import "github.com/shopspring/decimal"

// AmountScale is the number of fractional digits the ledger keeps for money.
const AmountScale = 2

// ValidAmount reports whether amount is positive and representable at AmountScale.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(AmountScale))
}
