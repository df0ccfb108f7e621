package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elmalimarket/elmali/internal"
	"github.com/elmalimarket/elmali/internal/events"
	"github.com/elmalimarket/elmali/internal/handler"
	"github.com/elmalimarket/elmali/internal/handler/webhook"
	"github.com/elmalimarket/elmali/internal/jobs"
	"github.com/elmalimarket/elmali/internal/middleware"
	"github.com/elmalimarket/elmali/internal/notify"
	"github.com/elmalimarket/elmali/internal/paytr"
	"github.com/elmalimarket/elmali/internal/postgres"
	"github.com/elmalimarket/elmali/internal/router"
	"github.com/elmalimarket/elmali/internal/routes"
	"github.com/elmalimarket/elmali/internal/service"
	"github.com/elmalimarket/elmali/internal/telemetry"
	"github.com/elmalimarket/elmali/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)

	// Payment gateway
	gateway := paytr.NewClient(paytr.Config{
		MerchantID:   cfg.PayTR.MerchantID,
		MerchantKey:  cfg.PayTR.MerchantKey,
		MerchantSalt: cfg.PayTR.MerchantSalt,
		OKURL:        cfg.PayTR.OKURL,
		FailURL:      cfg.PayTR.FailURL,
		Timeout:      cfg.PayTR.Timeout,
		TimeoutLimit: cfg.PayTR.TimeoutLimit,
		TestMode:     cfg.PayTR.TestMode,
	}, logger)

	// Event bus: NATS when configured, in-process otherwise
	var bus events.Bus
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSBus(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		bus = natsBus
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	} else {
		bus = events.NewInProcBus()
		logger.Info("Using in-process event bus")
	}
	defer bus.Close()

	// Metrics
	httpMetrics := middleware.NewMetrics("elmali")
	businessMetrics := telemetry.NewBusinessMetrics("elmali")

	// Notification channels. Leaving SMS credentials unset disables the
	// channel without disabling the dispatcher.
	emailSender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     int(cfg.Email.Port),
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	}, logger)

	var smsSender notify.SMSSender
	if cfg.SMS.Username != "" && cfg.SMS.Password != "" {
		smsSender = notify.NewNetgsmSender(cfg.SMS.APIURL, cfg.SMS.Username, cfg.SMS.Password, cfg.SMS.Header)
	} else {
		logger.Warn("SMS credentials not configured, SMS notifications disabled")
	}

	dispatcher := notify.NewDispatcher(emailSender, smsSender, businessMetrics, logger)

	// Notification worker consumes order events off the bus
	notifyWorker := worker.NewWorker(bus, dispatcher, worker.Config{}, logger)
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- notifyWorker.Start(ctx)
	}()

	// Expire hosted-page sessions that never produced a callback. The max
	// age trails the page expiry by a grace window so a slow callback wins.
	sweeper := jobs.NewSessionSweeper(store,
		5*time.Minute,
		time.Duration(cfg.PayTR.TimeoutLimit)*time.Minute+10*time.Minute,
		logger)
	go sweeper.Run(ctx)

	// Services
	orderService := service.NewOrderService(store, store, bus, logger)
	paymentService := service.NewPaymentService(store, store, store, gateway, logger)
	reconciler := service.NewReconciler(store, store, store, gateway, bus, businessMetrics, logger)

	// Handlers
	orderHandler := handler.NewOrderHandler(orderService, businessMetrics)
	paymentHandler := handler.NewPaymentHandler(paymentService, businessMetrics)
	paytrHandler := webhook.NewPayTRHandler(reconciler, businessMetrics)

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		middleware.WithClientIP(),
		middleware.WithAuth(cfg.JWTSecret),
		middleware.WithRequestLogger(logger),
	)

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		httpMetrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Register route groups
	routes.RegisterAPIRoutes(r, routes.APIDeps{
		OrderHandler:   orderHandler,
		PaymentHandler: paymentHandler,
	})
	routes.RegisterWebhookRoutes(r, routes.WebhookDeps{
		PayTRHandler: paytrHandler,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.CORS(cfg.CORSOrigins)(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	// Worker drains in-flight notifications once its context is cancelled
	if err := <-workerDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", "error", err)
	}

	logger.Info("Shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
