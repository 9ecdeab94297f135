package web

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4,6}$`)

// ValidAmount validates a positive decimal string with at most two fractional digits.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}

	return domain.ValidAmount(d)
}

// ValidTicketKind validates a request kind.
var ValidTicketKind validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return domain.TicketKind(s).Valid()
	}

	return false
}

// ValidPIN validates a 4 to 6 digit PIN.
var ValidPIN validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return pinPattern.MatchString(s)
	}

	return false
}

// RegisterValidators registers the custom binding tags with gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	validators := map[string]validator.Func{
		"amount":     ValidAmount,
		"ticketkind": ValidTicketKind,
		"pin":        ValidPIN,
	}

	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	return nil
}
