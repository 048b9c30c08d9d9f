package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumina-commerce/storefront-backend/api/routes"
	"github.com/lumina-commerce/storefront-backend/internal/auth"
	"github.com/lumina-commerce/storefront-backend/internal/catalog"
	"github.com/lumina-commerce/storefront-backend/internal/checkout"
	"github.com/lumina-commerce/storefront-backend/internal/devicestore"
	"github.com/lumina-commerce/storefront-backend/internal/orders"
	"github.com/lumina-commerce/storefront-backend/internal/remotestore"
	"github.com/lumina-commerce/storefront-backend/internal/shopper"
	"github.com/lumina-commerce/storefront-backend/pkg/auth/session"
	"github.com/lumina-commerce/storefront-backend/pkg/config"
	"github.com/lumina-commerce/storefront-backend/pkg/db"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
	"github.com/lumina-commerce/storefront-backend/pkg/metrics"
	"github.com/lumina-commerce/storefront-backend/pkg/migrate"
	"github.com/lumina-commerce/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		AuthConfig:     cfg.Auth,
		JWTConfig:      cfg.JWT,
		SessionManager: sessionManager,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	// The device store gets its own sqlite file. It holds guest cart and
	// wishlist state, so it must survive restarts independently of the
	// primary database.
	deviceDB, err := db.New(context.Background(), config.DBConfig{
		DSN:    cfg.Device.Path,
		Driver: "sqlite",
	}, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open device store", err)
		os.Exit(1)
	}
	defer func() {
		if err := deviceDB.Close(); err != nil {
			logg.Error(context.Background(), "error closing device store", err)
		}
	}()

	deviceStore, err := devicestore.NewSQLite(deviceDB.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to initialize device store", err)
		os.Exit(1)
	}

	remoteStore, err := remotestore.NewRedis(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to initialize remote store", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	shopperManager, err := shopper.NewManager(shopper.ManagerParams{
		Device:       deviceStore,
		Remote:       remoteStore,
		Catalog:      catalog.NewRepository(dbClient.DB()),
		Logger:       logg,
		Metrics:      syncMetrics,
		QuietPeriod:  cfg.Sync.DebounceQuietPeriod,
		WriteTimeout: cfg.Sync.RemoteReadTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shopper manager", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())

	checkoutService, err := checkout.NewService(checkout.Params{
		Gateway:  checkout.NewSimulator(cfg.Checkout.MaxAmountCents),
		Orders:   ordersRepo,
		Logger:   logg,
		Currency: cfg.Checkout.Currency,
		TaxRate:  cfg.Checkout.TaxRate,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Sessions: sessionManager,
			Registry: registry,
			Shoppers: shopperManager,
			Auth:     authService,
			Checkout: checkoutService,
			Orders:   ordersRepo,
			Catalog:  catalog.NewRepository(dbClient.DB()),
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error draining http server", err)
		}
	}

	// Closing the shopper manager flushes every pending debounced write, so
	// a deploy cannot drop a cart mutation that was inside the quiet window.
	if err := shopperManager.Close(); err != nil {
		logg.Error(ctx, "error closing shopper sessions", err)
	}
}
