// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/accountdelivery"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/accountservice"
	"github.com/go-petr/pet-ledger/internal/authdelivery"
	"github.com/go-petr/pet-ledger/internal/ledgerdelivery"
	"github.com/go-petr/pet-ledger/internal/ledgerrepo"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/memstore"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/sessiondelivery"
	"github.com/go-petr/pet-ledger/internal/sessionrepo"
	"github.com/go-petr/pet-ledger/internal/sessionservice"
	"github.com/go-petr/pet-ledger/internal/statementcache"
	"github.com/go-petr/pet-ledger/internal/statementdelivery"
	"github.com/go-petr/pet-ledger/internal/statementservice"
	"github.com/go-petr/pet-ledger/internal/ticketdelivery"
	"github.com/go-petr/pet-ledger/internal/ticketrepo"
	"github.com/go-petr/pet-ledger/internal/ticketservice"
	"github.com/go-petr/pet-ledger/internal/transactionrepo"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/currencypkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Storage bundles the repositories of one backend.
type Storage struct {
	DB           *sql.DB
	UnitOfWork   ledgerservice.UnitOfWork
	Accounts     accountservice.Repo
	Transactions statementservice.TransactionRepo
	Tickets      ticketservice.Repo
	Sessions     sessionservice.Repo
}

// PostgresStorage returns storage backed by the database.
func PostgresStorage(conn *sql.DB) Storage {
	return Storage{
		DB:           conn,
		UnitOfWork:   ledgerrepo.NewRepoPGS(conn),
		Accounts:     accountrepo.NewRepoPGS(conn),
		Transactions: transactionrepo.NewRepoPGS(conn),
		Tickets:      ticketrepo.NewRepoPGS(conn),
		Sessions:     sessionrepo.NewRepoPGS(conn),
	}
}

// MemoryStorage returns storage backed by the in-memory store.
func MemoryStorage(store *memstore.Store) Storage {
	return Storage{
		UnitOfWork:   store,
		Accounts:     store.Accounts(),
		Transactions: store.Transactions(),
		Tickets:      store.Tickets(),
		Sessions:     store.Sessions(),
	}
}

// Server holds storage, handlers router and configuration.
type Server struct {
	DB         *sql.DB
	Engine     *gin.Engine
	Config     configpkg.Config
	TokenMaker tokenpkg.Maker
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
// cache may be nil, then statements are derived on every request.
func New(storage Storage, cache *statementcache.Redis, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	if !currencypkg.IsSupportedCurrency(config.LedgerCurrency) {
		return nil, errors.New("unsupported ledger currency")
	}

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	if err := web.RegisterValidators(); err != nil {
		return nil, errors.New("cannot register validators")
	}

	ledgerOpts := []ledgerservice.Option{}
	if config.TxIDAttempts > 0 {
		ledgerOpts = append(ledgerOpts, ledgerservice.WithTxIDAttempts(config.TxIDAttempts))
	}

	var statementCache statementservice.Cache
	if cache != nil {
		ledgerOpts = append(ledgerOpts, ledgerservice.WithStatementCache(cache))
		statementCache = cache
	}

	ledgerService := ledgerservice.New(storage.UnitOfWork, config.LedgerCurrency, ledgerOpts...)
	accountService := accountservice.New(storage.Accounts, ledgerService)
	statementService := statementservice.New(storage.Accounts, storage.Transactions, statementCache)
	ticketService := ticketservice.New(storage.Tickets)

	sessionService, err := sessionservice.New(storage.Sessions, config, tokenMaker)
	if err != nil {
		return nil, err
	}

	admin := authdelivery.Admin{Username: config.AdminUsername, PasswordHash: config.AdminPasswordHash}

	authHandler := authdelivery.NewHandler(accountService, sessionService, admin)
	sessionHandler := sessiondelivery.NewHandler(sessionService)
	accountHandler := accountdelivery.NewHandler(accountService)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService, accountService, config.LedgerCurrency)
	statementHandler := statementdelivery.NewHandler(statementService)
	ticketHandler := ticketdelivery.NewHandler(ticketService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.GET("/health", func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, web.Response{Data: gin.H{"status": "ok"}})
	})

	engine.POST("/accounts", accountHandler.Register)
	engine.POST("/tokens", authHandler.Login)
	engine.POST("/admin/tokens", authHandler.AdminLogin)
	engine.POST("/tokens/renew", sessionHandler.RenewAccessToken)
	engine.POST("/tokens/revoke", sessionHandler.Revoke)

	authRoutes := engine.Group("/", middleware.AuthMiddleware(tokenMaker))

	authRoutes.GET("/accounts/:id", accountHandler.Get)
	authRoutes.GET("/accounts/:id/qr", ledgerHandler.QR)
	authRoutes.GET("/accounts/:id/statement", statementHandler.Statement)

	holderRoutes := authRoutes.Group("/", middleware.RequireRole(tokenpkg.RoleHolder))

	holderRoutes.POST("/transfers", ledgerHandler.Transfer)
	holderRoutes.POST("/transfers/qr", ledgerHandler.QRTransfer)
	holderRoutes.POST("/tickets", ticketHandler.Submit)
	holderRoutes.GET("/tickets", ticketHandler.Mine)

	adminRoutes := engine.Group("/admin", middleware.AuthMiddleware(tokenMaker), middleware.RequireRole(tokenpkg.RoleAdmin))

	adminRoutes.GET("/accounts", accountHandler.List)
	adminRoutes.POST("/accounts/:id/deactivate", accountHandler.Deactivate)
	adminRoutes.POST("/accounts/:id/credit", ledgerHandler.Credit)
	adminRoutes.POST("/accounts/:id/debit", ledgerHandler.Debit)
	adminRoutes.GET("/transactions", statementHandler.Transactions)
	adminRoutes.GET("/tickets", ticketHandler.List)
	adminRoutes.POST("/tickets/:id/approve", ticketHandler.Approve)
	adminRoutes.POST("/tickets/:id/reject", ticketHandler.Reject)

	server := &Server{
		DB:         storage.DB,
		Engine:     engine,
		Config:     config,
		TokenMaker: tokenMaker,
	}

	return server, nil
}
