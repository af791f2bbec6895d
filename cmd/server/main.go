// Copyright 2026 The Medikart Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/medikart/medikart/docs"
	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/catalog"
	"github.com/medikart/medikart/internal/config"
	"github.com/medikart/medikart/internal/identity"
	"github.com/medikart/medikart/internal/loyalty"
	"github.com/medikart/medikart/internal/notification"
	"github.com/medikart/medikart/internal/observability/logger"
	"github.com/medikart/medikart/internal/observability/metrics"
	"github.com/medikart/medikart/internal/observability/tracing"
	"github.com/medikart/medikart/internal/order"
	"github.com/medikart/medikart/internal/store/postgres"
	"github.com/medikart/medikart/internal/tenant"
	transportHTTP "github.com/medikart/medikart/internal/transport/http"
	"github.com/medikart/medikart/internal/upload"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting medikart platform")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if len(os.Args) > 1 && os.Args[1] == "bootstrap" {
		if err := runBootstrap(cfg); err != nil {
			fmt.Printf("Bootstrap failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	_, err = metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MinConns:     cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	tenantRepo := postgres.NewTenantRepository(db)
	actorRepo := postgres.NewActorRepository(db)
	productRepo := postgres.NewProductRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	endpointRepo := postgres.NewWebhookEndpointRepository(db)
	deliveryRepo := postgres.NewWebhookDeliveryRepository(db)

	// Audit events go to both the log stream and the audit table.
	auditLogger := audit.NewMultiLogger(
		audit.NewSlogLogger(),
		postgres.NewAuditRepository(db),
	)

	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	// Webhook dispatcher
	dispatcher := notification.NewDispatcher(endpointRepo, deliveryRepo, notification.DispatcherConfig{
		Timeout:     cfg.Webhooks.Timeout,
		MaxRetries:  cfg.Webhooks.MaxRetries,
		WorkerCount: cfg.Webhooks.WorkerCount,
	})
	dispatcher.Start(ctx)

	// Initialize services
	identityService := identity.NewService(
		actorRepo,
		passwordHasher,
		auditLogger,
		dispatcher,
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
	)
	tenantService := tenant.NewService(tenantRepo, auditLogger, dispatcher)
	catalogService := catalog.NewService(productRepo, auditLogger)
	orderService := order.NewService(orderRepo, productRepo, dispatcher, auditLogger)
	loyaltyService := loyalty.NewService(ledgerRepo, auditLogger)
	webhookService := notification.NewService(endpointRepo, deliveryRepo, auditLogger)

	uploads := upload.NewStore(cfg.Uploads.BasePath, cfg.Uploads.MaxSizeBytes)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime, cfg.Auth.Issuer)

	// Auto-accept job: pending orders older than the configured window are
	// moved to accepted.
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	autoAccept := order.NewAutoAcceptJob(orderService, cfg.Orders.AutoAcceptAfter, cfg.Orders.AutoAcceptInterval)
	go autoAccept.Run(jobCtx)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Tenant resolution
	resolver := &transportHTTP.TenantResolver{
		BaseDomain: cfg.Server.BaseDomain,
		Lookup: func(ctx context.Context, subdomain string) (string, error) {
			tn, err := tenantService.GetBySubdomain(ctx, subdomain)
			if err != nil {
				return "", err
			}
			return tn.ID, nil
		},
	}

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		identityService,
		tenantService,
		catalogService,
		orderService,
		loyaltyService,
		webhookService,
		uploads,
		tokens,
		auditLogger,
	)

	// Create router
	router := transportHTTP.NewRouter(handler, resolver, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown: stop taking requests, then stop background work.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	cancelJobs()
	dispatcher.Stop()

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}

// runBootstrap provisions the platform super admin from environment
// variables. Re-running against an existing account is a no-op.
func runBootstrap(cfg *config.Config) error {
	email := os.Getenv("BOOTSTRAP_SUPERADMIN_EMAIL")
	password := os.Getenv("BOOTSTRAP_SUPERADMIN_PASSWORD")
	if email == "" || password == "" {
		return fmt.Errorf("BOOTSTRAP_SUPERADMIN_EMAIL and BOOTSTRAP_SUPERADMIN_PASSWORD are required")
	}

	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	actorRepo := postgres.NewActorRepository(db)
	auditLogger := audit.NewMultiLogger(
		audit.NewSlogLogger(),
		postgres.NewAuditRepository(db),
	)
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
	identityService := identity.NewService(
		actorRepo,
		passwordHasher,
		auditLogger,
		notification.NopPublisher{},
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
	)

	actor, err := identityService.Register(ctx, identity.RegisterParams{
		Email:    email,
		Password: password,
		Name:     "Platform Admin",
		Role:     auth.RoleSuperAdmin,
	})
	if err != nil {
		if errors.Is(err, identity.ErrActorAlreadyExists) {
			fmt.Println("Super admin already exists, nothing to do.")
			return nil
		}
		return err
	}

	fmt.Printf("Super admin created: %s (%s)\n", actor.Email, actor.ID)
	return nil
}

func connect(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	return postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MinConns:     cfg.Database.MinConns,
	})
}
