package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"payhub/internal/app"
	"payhub/internal/config"
	"payhub/internal/dispatch"
	"payhub/internal/handler"
	internalRedis "payhub/internal/redis"
	"payhub/internal/repository/postgres"
	"payhub/internal/service"
)

func main() {
	// Load .env when present, then configuration.
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, dispatcher, intentService := wireServer(db, redisClient, nrApp, cfg)

	// Background workers run until shutdown.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	dispatcherDone := make(chan struct{})
	go func() {
		dispatcher.Run(workerCtx)
		close(dispatcherDone)
	}()
	go runExpirySweep(workerCtx, intentService, cfg.Sweep.Interval)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	// Stop workers after the server drains so in-flight approvals can
	// still publish their events, then wait for the dispatcher to flush
	// its buffer before the process exits.
	stopWorkers()
	<-dispatcherDone

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus
// the components that need their own goroutines.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *dispatch.Dispatcher, *service.PaymentIntentService) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	uow := postgres.NewUnitOfWork(db)
	intentRepo := postgres.NewPaymentIntentRepository(db)
	txRepo := postgres.NewTransactionRepository(db)
	refundRepo := postgres.NewRefundRepository(db)
	merchantRepo := postgres.NewMerchantRepository(db)

	// Initialize dispatcher.
	webhookSender := dispatch.NewWebhookSender(
		&http.Client{Timeout: cfg.Webhook.Timeout},
		dispatch.RetryPolicy{
			Attempts:   cfg.Webhook.Attempts,
			BaseDelay:  cfg.Webhook.BaseDelay,
			Multiplier: cfg.Webhook.Multiplier,
		},
	)
	emailNotifier := dispatch.NewEmailNotifier(nil)
	dispatcher := dispatch.NewDispatcher(webhookSender, emailNotifier)

	// Initialize services.
	recorder := service.NewTransactionRecorder(uow, intentRepo, txRepo)
	engine := service.NewAccountingEngine()
	intentService := service.NewPaymentIntentService(intentRepo, txRepo, merchantRepo, recorder, dispatcher)
	refundService := service.NewRefundService(uow, refundRepo, merchantRepo, recorder, engine, lockStore, dispatcher)

	// Initialize handlers.
	intentHandler := handler.NewPaymentIntentHandler(intentService)
	refundHandler := handler.NewRefundHandler(refundService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		PaymentIntentHandler: intentHandler,
		RefundHandler:        refundHandler,
		MerchantRepo:         merchantRepo,
		MerchantCache:        cacheStore,
		RedisClient:          redisClient,
		JWTSecret:            cfg.Auth.JWTSecret,
		NewRelicApp:          nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return server, dispatcher, intentService
}

// runExpirySweep periodically expires overdue PENDING payment intents.
func runExpirySweep(ctx context.Context, intents *service.PaymentIntentService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			expired, err := intents.ExpireOverduePaymentIntents(ctx, time.Now())
			if err != nil {
				log.Printf("expiry sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("expiry sweep: expired %d payment intents", expired)
			}
		case <-ctx.Done():
			return
		}
	}
}
