// Package main runs the staking platform API server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/StakePool-Labs/staking_layer/internal/app"
	"github.com/StakePool-Labs/staking_layer/internal/app/httpapi"
	"github.com/StakePool-Labs/staking_layer/internal/app/metrics"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/memory"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/postgres"
	"github.com/StakePool-Labs/staking_layer/internal/app/storage/snapshot"
	"github.com/StakePool-Labs/staking_layer/internal/chain"
	"github.com/StakePool-Labs/staking_layer/internal/config"
	"github.com/StakePool-Labs/staking_layer/internal/middleware"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}).WithField("service", "server")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, persister, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}

	application, err := app.New(stores, app.Options{AccrualSchedule: cfg.AccrualSchedule}, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	if persister != nil {
		application.AttachPersister(persister)
	}

	var cache chain.Cache
	if cfg.RedisURL != "" {
		cache, err = chain.NewRedisCache(cfg.RedisURL, 0)
		if err != nil {
			return fmt.Errorf("redis cache: %w", err)
		}
		log.Info("balance cache backed by redis")
	}
	chainClient := chain.NewClient(cfg.EthRPCURLs, stores.Wallets, cache, log)

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := application.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("application stop failed")
		}
	}()

	handler := httpapi.NewHandler(application, chainClient, httpapi.Options{
		AdminUsername: cfg.Admin.Username,
		AdminPassword: cfg.Admin.Password,
		JWTSecret:     cfg.Admin.JWTSecret,
	}, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, log)
	limiter.StartCleanup(10 * time.Minute)

	var root http.Handler = handler
	root = metrics.InstrumentHandler(root)
	root = limiter.Handler(root)
	root = middleware.CORS(cfg.AllowedOrigins)(root)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Infof("received %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildStores wires PostgreSQL when DATABASE_URL is set, otherwise the
// in-memory store persisted to the data file.
func buildStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (app.Stores, storage.Persister, error) {
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return app.Stores{}, nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			return app.Stores{}, nil, fmt.Errorf("ping database: %w", err)
		}

		store := postgres.New(db)
		if err := store.Migrate(ctx); err != nil {
			return app.Stores{}, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("storage backed by postgres")
		return app.Stores{
			Users:    store,
			Ledger:   store,
			Wallets:  store,
			Settings: store,
		}, nil, nil
	}

	mem := memory.New()
	if defaults, err := config.LoadSettingsDefaults(os.Getenv("SETTINGS_FILE")); err != nil {
		return app.Stores{}, nil, err
	} else if _, err := mem.SaveSettings(ctx, defaults); err != nil {
		return app.Stores{}, nil, err
	}

	file := snapshot.NewFile(cfg.DataFile, mem, log)
	if err := file.Load(ctx); err != nil {
		return app.Stores{}, nil, fmt.Errorf("load data file: %w", err)
	}

	return app.Stores{
		Users:    mem,
		Ledger:   mem,
		Wallets:  mem,
		Settings: mem,
	}, file, nil
}
