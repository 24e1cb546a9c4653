package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhtran/cashbook/internal/debt"
	"github.com/minhtran/cashbook/internal/infra/memory"
	"github.com/minhtran/cashbook/internal/infra/postgres"
	"github.com/minhtran/cashbook/internal/ledger"
	"github.com/minhtran/cashbook/internal/platform/wallet"
	"github.com/minhtran/cashbook/internal/transfer"
	"github.com/minhtran/cashbook/internal/transport/httpapi/handler"
	"github.com/minhtran/cashbook/internal/transport/httpapi/router"
	"github.com/minhtran/cashbook/pkg/config"
	"github.com/minhtran/cashbook/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDefault(cfg.Env)
	log.Info("Starting cashbook API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage", cfg.Storage,
	)

	// Repositories, postgres or in-memory per STORAGE
	var (
		postingRepo  ledger.Repository
		walletRepo   wallet.Repository
		transferRepo transfer.Repository
		orderRepo    debt.OrderRepository
		jobRepo      debt.JobRepository
		pinger       handler.DatabasePinger
	)

	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("Database connection established")

		postingRepo = postgres.NewPostingRepository(db.Pool)
		walletRepo = postgres.NewWalletRepository(db.Pool)
		transferRepo = postgres.NewTransferRepository(db.Pool)
		orderRepo = postgres.NewOrderRepository(db.Pool)
		jobRepo = postgres.NewJobRepository(db.Pool)
		pinger = db
	case config.StorageMemory:
		store := memory.NewStore()
		postingRepo = store
		walletRepo = store
		transferRepo = store.Transfers()
		orderRepo = store
		jobRepo = store
		log.Warn("Running on in-memory storage, data is lost on restart")
	}

	// Services
	walletSvc := wallet.NewService(walletRepo)
	ledgerSvc := ledger.NewService(postingRepo, walletSvc)
	transferSvc := transfer.NewService(transferRepo, ledgerSvc)
	debtSvc := debt.NewService(orderRepo, jobRepo, postingRepo)

	// HTTP handlers
	walletHandler := handler.NewWalletHandler(walletSvc, ledgerSvc, transferSvc)
	transactionHandler := handler.NewTransactionHandler(ledgerSvc)
	transferHandler := handler.NewTransferHandler(transferSvc)
	orderHandler := handler.NewOrderHandler(debtSvc)
	workshopJobHandler := handler.NewWorkshopJobHandler(debtSvc)
	healthHandler := handler.NewHealthHandler(pinger)

	r := router.New(router.Config{
		Logger:             log,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		WalletHandler:      walletHandler,
		TransactionHandler: transactionHandler,
		TransferHandler:    transferHandler,
		OrderHandler:       orderHandler,
		WorkshopJobHandler: workshopJobHandler,
		HealthHandler:      healthHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}
