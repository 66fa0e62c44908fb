// Office Gama storefront API
//
// Main entry point for the checkout and order service. It wires up all
// dependencies and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/BosskingGM/office-gama/config"
	"github.com/BosskingGM/office-gama/internal/adapters/memory"
	"github.com/BosskingGM/office-gama/internal/adapters/mercadopago"
	"github.com/BosskingGM/office-gama/internal/adapters/postgres"
	"github.com/BosskingGM/office-gama/internal/adapters/resend"
	"github.com/BosskingGM/office-gama/internal/core/ports"
	"github.com/BosskingGM/office-gama/internal/core/service"
	"github.com/BosskingGM/office-gama/internal/handlers"
	"github.com/BosskingGM/office-gama/internal/telemetry"
)

// storage groups the storage ports so main can pick Postgres or memory.
type storage struct {
	ledger    ports.OrderLedger
	inventory ports.InventoryAdjuster
	pending   ports.PendingCheckoutStore
	close     func()
}

func main() {
	log.Println("Starting Office Gama API...")

	// Load configuration
	cfg := config.Load()
	log.Printf("Configuration loaded: Port=%s, PublicURL=%s", cfg.Server.Port, cfg.Server.PublicURL)

	// Validate required configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("Telemetry error: %v", err)
	}

	// Wire up dependencies (manual dependency injection)
	//
	// Infrastructure Layer
	store, err := openStorage(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Storage error: %v", err)
	}
	defer store.close()

	gateway, err := mercadopago.NewAdapter(mercadopago.Options{
		AccessToken:     cfg.Payment.AccessToken,
		Currency:        cfg.Payment.Currency,
		SuccessURL:      cfg.Payment.SuccessURL,
		CancelURL:       cfg.Payment.CancelURL,
		NotificationURL: cfg.WebhookURL(),
		Sandbox:         cfg.Payment.Sandbox,
	})
	if err != nil {
		log.Fatalf("Payment gateway error: %v", err)
	}
	validator := mercadopago.NewWebhookValidator(cfg.Payment.SignatureTolerance)

	var mailer ports.ShipmentMailer
	if cfg.Mail.APIKey != "" {
		mailer = resend.NewMailer(cfg.Mail.BaseURL, cfg.Mail.APIKey, cfg.Mail.From, cfg.Payment.Currency)
	} else {
		mailer = resend.NewLogMailer(cfg.Payment.Currency)
	}

	// Service Layer
	checkoutService := service.NewCheckoutService(gateway, store.pending)
	webhookService := service.NewWebhookService(validator, cfg.Payment.WebhookSecret, store.ledger, store.inventory, store.pending)
	orderService := service.NewOrderService(store.ledger, mailer, cfg.Mail.NotifyTimeout)
	reconcileService := service.NewReconcileService(store.inventory, cfg.Reconcile.BatchSize)

	if cfg.Reconcile.Interval > 0 {
		go reconcileService.Run(ctx, cfg.Reconcile.Interval)
		log.Printf("Inventory reconciliation every %s", cfg.Reconcile.Interval)
	}

	// API Layer
	router := handlers.SetupRouter(
		handlers.NewPaymentHandler(checkoutService, webhookService, cfg.Shipping),
		handlers.NewOrderHandler(orderService, reconcileService),
		handlers.RouterConfig{
			GinMode:        cfg.Server.GinMode,
			ServiceName:    cfg.Telemetry.ServiceName,
			JWTSecret:      cfg.Auth.JWTSecret,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		},
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	orderService.Wait()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("Telemetry shutdown error: %v", err)
	}
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	if cfg.URL == "" {
		log.Println("Warning: DATABASE_URL not set, using in-memory storage (data is lost on restart)")
		mem := memory.NewStore()
		return &storage{ledger: mem, inventory: mem, pending: mem, close: func() {}}, nil
	}

	pool, err := postgres.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &storage{
		ledger:    postgres.NewOrderRepository(pool),
		inventory: postgres.NewInventoryRepository(pool),
		pending:   postgres.NewPendingRepository(pool),
		close:     pool.Close,
	}, nil
}

// validateConfig checks that required configuration values are set.
func validateConfig(cfg *config.Config) error {
	if cfg.Payment.AccessToken == "" {
		return fmt.Errorf("MP_ACCESS_TOKEN is required")
	}
	if cfg.Payment.WebhookSecret == "" {
		return fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Shipping.LocalCost < 0 || cfg.Shipping.NationalCost < 0 {
		return fmt.Errorf("shipping tariffs cannot be negative")
	}
	if cfg.Mail.APIKey == "" {
		log.Println("Warning: RESEND_API_KEY not set, shipment notices will only be logged")
	}
	if cfg.Payment.SignatureTolerance == 0 {
		log.Println("Warning: SIGNATURE_TOLERANCE is 0, webhook timestamps are not checked")
	}
	return nil
}
