// Package errorspkg holds the errors shared by the ledger's storage and
// delivery layers.
package errorspkg

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrInternal is what clients see in place of any failure outside the domain
// error categories. The cause is only logged.
var ErrInternal = errors.New("internal")

// Internal logs err at error level on the context logger and returns ErrInternal.
func Internal(ctx context.Context, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Send()
	return ErrInternal
}
