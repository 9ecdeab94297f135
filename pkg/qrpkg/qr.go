// Package qrpkg encodes payment requests as URIs and renders them as QR codes.
package qrpkg

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const (
	scheme = "ledger"
	host   = "pay"

	// DefaultSize is the PNG side length in pixels.
	DefaultSize = 256
)

// Errors returned by ParseURI.
var (
	ErrInvalidURI    = errors.New("invalid payment request uri")
	ErrMissingTo     = errors.New("payment request has no recipient")
	ErrInvalidAmount = errors.New("payment request amount is invalid")
)

// PaymentRequest asks the scanner to pay Amount to the account To.
// A zero Amount leaves the amount to the payer.
type PaymentRequest struct {
	To       string
	Amount   decimal.Decimal
	Currency string
}

// URI returns the ledger://pay representation of the request.
func (r PaymentRequest) URI() string {
	q := url.Values{}
	q.Set("to", r.To)

	if !r.Amount.IsZero() {
		q.Set("amount", r.Amount.String())
	}

	if r.Currency != "" {
		q.Set("currency", r.Currency)
	}

	u := url.URL{Scheme: scheme, Host: host, RawQuery: q.Encode()}

	return u.String()
}

// PNG renders the request URI as a QR code image of size x size pixels.
func (r PaymentRequest) PNG(size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(r.URI(), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	return png, nil
}

// ParseURI parses a scanned ledger://pay URI.
func ParseURI(raw string) (PaymentRequest, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != scheme || u.Host != host {
		return PaymentRequest{}, ErrInvalidURI
	}

	q := u.Query()

	req := PaymentRequest{
		To:       q.Get("to"),
		Currency: q.Get("currency"),
	}

	if req.To == "" {
		return PaymentRequest{}, ErrMissingTo
	}

	if s := q.Get("amount"); s != "" {
		amount, err := decimal.NewFromString(s)
		if err != nil || !domain.ValidAmount(amount) {
			return PaymentRequest{}, ErrInvalidAmount
		}

		req.Amount = amount
	}

	return req, nil
}
