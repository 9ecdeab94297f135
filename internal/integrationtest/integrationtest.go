// Package integrationtest provides db helpers used in integration tests.
package integrationtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/go-petr/pet-ledger/db"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"

	_ "github.com/lib/pq"
)

const (
	postgresImage = "postgres:15-alpine"
	dbName        = "pet_ledger"
	dbUser        = "root"
	dbPassword    = "secret"
)

// StartPostgres starts a disposable Postgres container, applies the
// migrations and returns the connection. The container is terminated when
// the test finishes.
func StartPostgres(t testing.TB) *sql.DB {
	t.Helper()

	conn, _ := StartPostgresSource(t)

	return conn
}

// StartPostgresSource is StartPostgres that also returns the connection string.
func StartPostgresSource(t testing.TB) (*sql.DB, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("cannot start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("cannot terminate postgres container: %v", err)
		}
	})

	source, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("cannot get connection string: %v", err)
	}

	if err := dbpkg.Migrate(ctx, source, db.Migrations()); err != nil {
		t.Fatalf("db migration failed. err: %v", err)
	}

	conn, err := dbpkg.Setup("postgres", source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
	})

	return conn, source
}

// Flush empties the ledger tables without dropping them.
func Flush(t testing.TB, conn *sql.DB) {
	t.Helper()

	if _, err := conn.Exec(`TRUNCATE TABLE sessions, tickets, transactions, accounts CASCADE`); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}
