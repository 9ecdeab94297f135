package dbpkg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

// Migrate applies every pending up migration of fsys to the postgres
// database at source.
//
// It opens its own connection, which is closed before returning. Files
// follow the {version}_{title}.up.sql naming. Cancelling ctx stops the run
// after the migration in flight.
func Migrate(ctx context.Context, source string, fsys fs.FS) error {
	l := zerolog.Ctx(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	conn, err := Setup("postgres", source)
	if err != nil {
		src.Close()
		return fmt.Errorf("failed to connect for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		src.Close()
		conn.Close()

		return fmt.Errorf("failed to create postgres driver instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		driver.Close()

		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			l.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("failed to close migrator")
		}
	}()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	err = m.Up()

	switch {
	case err == nil:
		version, _, _ := m.Version()
		l.Info().Uint("version", version).Msg("migrations applied")

		return nil
	case errors.Is(err, migrate.ErrNoChange):
		l.Info().Msg("no new migrations")
		return nil
	}

	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) {
		return fmt.Errorf("migration failed: dirty database version %d", dirty.Version)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("migration stopped: %w", ctxErr)
	}

	return fmt.Errorf("migration failed: %w", err)
}
