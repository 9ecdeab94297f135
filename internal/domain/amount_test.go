package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestValidAmount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		amount string
		want   bool
	}{
		{"10", true},
		{"0.01", true},
		{"1.50", true},
		{"1.5000", true},
		{"0", false},
		{"-1", false},
		{"0.00005", false},
		{"1.005", false},
		{"0.001", false},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.amount, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, ValidAmount(decimal.RequireFromString(tc.amount)))
		})
	}
}
