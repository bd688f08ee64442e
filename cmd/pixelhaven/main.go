package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vickyyylii/pixel-haven/internal/app"
	"github.com/vickyyylii/pixel-haven/internal/auth"
	"github.com/vickyyylii/pixel-haven/internal/catalog/products"
	"github.com/vickyyylii/pixel-haven/internal/catalog/suppliers"
	"github.com/vickyyylii/pixel-haven/internal/dashboard"
	"github.com/vickyyylii/pixel-haven/internal/directory/customers"
	"github.com/vickyyylii/pixel-haven/internal/directory/employees"
	"github.com/vickyyylii/pixel-haven/internal/observability"
	"github.com/vickyyylii/pixel-haven/internal/orders"
	"github.com/vickyyylii/pixel-haven/internal/platform/cache"
	"github.com/vickyyylii/pixel-haven/internal/platform/db"
	"github.com/vickyyylii/pixel-haven/internal/shared"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	sessionManager := shared.NewSessionManager(redisClient, "ph_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idemStore := shared.NewIdempotencyStore(pool)

	dashboardCache := dashboard.NewCache(redisClient, 5*time.Minute)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), dashboardCache, cfg.LowStockThreshold)

	authService := auth.NewService(auth.NewRepository(pool))
	productService := products.NewService(products.NewRepository(pool, cfg.LowStockThreshold), dashboardService)
	supplierService := suppliers.NewService(suppliers.NewRepository(pool))
	customerService := customers.NewService(customers.NewRepository(pool))
	employeeService := employees.NewService(employees.NewRepository(pool))
	orderService := orders.NewService(orders.ServiceParams{
		Logger:  logger,
		Repo:    orders.NewRepository(pool),
		Idem:    idemStore,
		Audit:   auditLogger,
		Stats:   dashboardService,
		Metrics: metrics,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Pool:           pool,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,

		AuthHandler:      auth.NewHandler(logger, authService, sessionManager, csrfManager),
		ProductHandler:   products.NewHandler(logger, productService),
		SupplierHandler:  suppliers.NewHandler(logger, supplierService),
		CustomerHandler:  customers.NewHandler(logger, customerService),
		EmployeeHandler:  employees.NewHandler(logger, employeeService),
		OrderHandler:     orders.NewHandler(logger, orderService),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
