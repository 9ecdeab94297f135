package qrpkg

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestURIRoundTrip(t *testing.T) {
	t.Parallel()

	req := PaymentRequest{
		To:       "1234567890",
		Amount:   decimal.RequireFromString("150.25"),
		Currency: "INR",
	}

	uri := req.URI()
	require.Equal(t, "ledger://pay?amount=150.25&currency=INR&to=1234567890", uri)

	got, err := ParseURI(uri)
	require.NoError(t, err)

	if diff := cmp.Diff(req.To, got.To); diff != "" {
		t.Errorf("ParseURI(%q) To mismatch (-want +got):\n%s", uri, diff)
	}

	require.True(t, req.Amount.Equal(got.Amount))
	require.Equal(t, req.Currency, got.Currency)
}

func TestParseURI(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		uri     string
		wantErr error
	}{
		{name: "OK", uri: "ledger://pay?to=1234567890&amount=10"},
		{name: "NoAmount", uri: "ledger://pay?to=1234567890"},
		{name: "WrongScheme", uri: "https://pay?to=1234567890", wantErr: ErrInvalidURI},
		{name: "WrongHost", uri: "ledger://collect?to=1234567890", wantErr: ErrInvalidURI},
		{name: "MissingTo", uri: "ledger://pay?amount=10", wantErr: ErrMissingTo},
		{name: "NegativeAmount", uri: "ledger://pay?to=1&amount=-5", wantErr: ErrInvalidAmount},
		{name: "ZeroAmount", uri: "ledger://pay?to=1&amount=0", wantErr: ErrInvalidAmount},
		{name: "GarbageAmount", uri: "ledger://pay?to=1&amount=ten", wantErr: ErrInvalidAmount},
		{name: "CentAmount", uri: "ledger://pay?to=1&amount=0.01"},
		{name: "SubCentAmount", uri: "ledger://pay?to=1&amount=0.00005", wantErr: ErrInvalidAmount},
		{name: "ThreeDecimals", uri: "ledger://pay?to=1&amount=1.005", wantErr: ErrInvalidAmount},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseURI(tc.uri)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestPNG(t *testing.T) {
	t.Parallel()

	png, err := PaymentRequest{To: "1234567890"}.PNG(0)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
