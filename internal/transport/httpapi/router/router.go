package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/minhtran/cashbook/internal/transport/httpapi/handler"
	"github.com/minhtran/cashbook/internal/transport/httpapi/middleware"
	"github.com/minhtran/cashbook/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger             *logger.Logger
	AllowedOrigins     []string
	RateLimitRPS       int
	RateLimitBurst     int
	WalletHandler      *handler.WalletHandler
	TransactionHandler *handler.TransactionHandler
	TransferHandler    *handler.TransferHandler
	OrderHandler       *handler.OrderHandler
	WorkshopJobHandler *handler.WorkshopJobHandler
	HealthHandler      *handler.HealthHandler
}

// New creates a new HTTP router
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	// Health check endpoints
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Wallet routes
		r.Post("/wallets", cfg.WalletHandler.CreateWallet)
		r.Get("/wallets", cfg.WalletHandler.GetWallets)
		r.Get("/wallets/{id}", cfg.WalletHandler.GetWallet)
		r.Put("/wallets/{id}", cfg.WalletHandler.UpdateWallet)
		r.Delete("/wallets/{id}", cfg.WalletHandler.DeleteWallet)
		r.Post("/wallets/{id}/restore", cfg.WalletHandler.RestoreWallet)
		r.Get("/wallets/{id}/balance", cfg.WalletHandler.GetBalance)
		r.Get("/wallets/{id}/history", cfg.WalletHandler.GetHistory)
		r.Get("/wallets/{id}/summary", cfg.WalletHandler.GetUsageSummary)
		r.Get("/wallets/{id}/transfers", cfg.WalletHandler.GetTransfers)

		// Transaction routes
		r.Post("/transactions", cfg.TransactionHandler.CreateTransaction)
		r.Get("/transactions/{id}", cfg.TransactionHandler.GetTransaction)
		r.Patch("/transactions/{id}", cfg.TransactionHandler.UpdateTransaction)
		r.Delete("/transactions/{id}", cfg.TransactionHandler.DeleteTransaction)
		r.Post("/transactions/{id}/restore", cfg.TransactionHandler.RestoreTransaction)

		// Transfer routes
		r.Post("/transfers", cfg.TransferHandler.CreateTransfer)
		r.Get("/transfers/{id}", cfg.TransferHandler.GetTransfer)
		r.Patch("/transfers/{id}", cfg.TransferHandler.UpdateTransfer)
		r.Delete("/transfers/{id}", cfg.TransferHandler.DeleteTransfer)
		r.Post("/transfers/{id}/restore", cfg.TransferHandler.RestoreTransfer)

		// Order routes
		r.Post("/orders", cfg.OrderHandler.CreateOrder)
		r.Get("/orders/{id}/debt", cfg.OrderHandler.GetOrderDebt)
		r.Get("/orders/{id}/payments", cfg.OrderHandler.GetOrderPayments)

		// Workshop job routes
		r.Post("/workshop-jobs", cfg.WorkshopJobHandler.CreateWorkshopJob)
		r.Get("/workshop-jobs/{id}/debt", cfg.WorkshopJobHandler.GetJobDebt)
		r.Get("/workshop-jobs/{id}/payments", cfg.WorkshopJobHandler.GetJobPayments)
		r.Put("/workshop-jobs/{id}/discount", cfg.WorkshopJobHandler.UpdateDiscount)
	})

	return r
}
