// Package randompkg provides functionality gor generating random applications common items.
package randompkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz"
	digits   = "0123456789"
)

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// IntBetween generates a random integer between min and max inclusive.
func IntBetween(min, max int) int64 {
	return int64(min) + Intn(max-min+1)
}

func fromAlphabet(set string, n int) string {
	var sb strings.Builder

	k := len(set)

	for i := 0; i < n; i++ {
		c := set[Intn(k)]

		_ = sb.WriteByte(c) // The returned err is always nil.
	}

	return sb.String()
}

// String generates a random string of length n.
func String(n int) string {
	return fromAlphabet(alphabet, n)
}

// Digits generates a random string of n decimal digits.
func Digits(n int) string {
	return fromAlphabet(digits, n)
}

// AccountNumber generates a random 10 digit account number without a leading zero.
func AccountNumber() string {
	return fmt.Sprintf("%d", IntBetween(1_000_000_000, 9_999_999_999))
}

// PIN generates a random 4 digit PIN.
func PIN() string {
	return Digits(4)
}

// Owner generates a random owner name.
func Owner() string {
	return String(6)
}

// MoneyAmountBetween generates a random amount of money between min and max with 2 decimals.
func MoneyAmountBetween(min, max int64) decimal.Decimal {
	cents := IntBetween(int(min*100), int(max*100))
	return decimal.New(cents, -2)
}

// Email generates a random email.
func Email() string {
	return fmt.Sprintf("%s@email.com", String(10))
}
