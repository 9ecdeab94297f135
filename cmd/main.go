// Package main runs the ledger API server.
package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/db"
	"github.com/go-petr/pet-ledger/internal/memstore"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/statementcache"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"

	_ "github.com/lib/pq"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)
	ctx := logger.WithContext(context.Background())

	var storage httpserver.Storage

	switch config.DBDriver {
	case configpkg.DriverMemory:
		logger.Warn().Msg("using in-memory storage, data is lost on exit")

		storage = httpserver.MemoryStorage(memstore.New())
	default:
		conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot connect to database")
		}

		if config.Migrate {
			migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)

			err = dbpkg.Migrate(migrateCtx, config.DBSource, db.Migrations())

			cancel()

			if err != nil {
				logger.Fatal().Err(err).Msg("cannot migrate database")
			}
		}

		storage = httpserver.PostgresStorage(conn)
	}

	var cache *statementcache.Redis

	rdb, err := statementcache.Connect(ctx, config)
	if err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without statement cache")
	} else if rdb != nil {
		cache = statementcache.New(rdb, config.StatementCacheTTL)
	}

	server, err := httpserver.New(storage, cache, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	logger.Info().Str("address", config.ServerAddress).Msg("LEDGER API SERVER HAS STARTED")

	err = server.Engine.Run(config.ServerAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
