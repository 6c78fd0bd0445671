package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/cache"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/ledger"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/processor/stripe"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest/docs"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/stripe-bridge/internal/worker"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return serve(cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before starting")

	return cmd
}

func serve(cfg *config.Config, migrate bool) error {
	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting bridge service",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	if migrate {
		if err := withMigrator(func(m *postgres.Migrator) error { return m.Up() }); err != nil {
			return err
		}
	}

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	checks := map[string]handlers.HealthCheck{"database": db.Ping}

	var identityCache application.IdentityCache = cache.NoopIdentityCache{}
	if cfg.Cache.RedisAddr != "" {
		redisCache, err := cache.Connect(ctx, cfg.Cache, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisCache.Close()
		identityCache = redisCache
		checks["redis"] = redisCache.Ping
	} else {
		logger.Warn("identity cache disabled, every request verifies its token with the ledger")
	}

	users := postgres.NewUserRepository(db)
	companies := postgres.NewCompanyRepository(db)
	currencies := postgres.NewCurrencyRepository(db)
	sessions := postgres.NewSessionRepository(db)
	payments := postgres.NewPaymentRepository(db)
	tc := postgres.NewTransactionCoordinator(db)

	ledgerClient := ledger.NewRetryLedgerClient(ledger.NewLedgerClient(cfg.Ledger), cfg.Retry)
	processor := stripe.NewClient(cfg.Processor, logger)

	authService := services.NewAuthenticationService(ledgerClient, identityCache, users, companies, cfg.Cache.IdentityTTL, logger)
	activationService := services.NewActivationService(authService, ledgerClient, currencies, tc, logger)
	companyService := services.NewCompanyService(currencies, processor, tc, cfg.Server.PublicBaseURL, logger)
	customerService := services.NewCustomerService(processor, tc, logger)
	sessionService := services.NewSessionService(sessions, customerService, processor, logger)
	paymentService := services.NewPaymentService(payments, currencies, customerService, processor, ledgerClient, tc, logger)
	webhookService := services.NewWebhookService(companies, payments, paymentService, processor, tc, logger)
	queryService := services.NewQueryService(currencies, users)

	h := handlers.NewHandlers(
		authService,
		activationService,
		webhookService,
		companyService,
		queryService,
		sessionService,
		paymentService,
		customerService,
		logger,
	)

	doc, err := docs.Load(ctx)
	if err != nil {
		return err
	}
	validateRequests, err := middleware.OpenAPIValidator(doc, logger)
	if err != nil {
		return err
	}

	handler := middleware.Chain(
		h.Routes(checks),
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.Timeout(cfg.Server.ReadTimeout),
		validateRequests,
	)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if cfg.Worker.Enabled {
		reconciler := worker.NewReconciler(payments, users, companies, processor, paymentService, cfg.Worker, logger)
		go reconciler.Start(workerCtx)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit.Done():
	}

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
	return nil
}
