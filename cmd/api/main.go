// Command api serves the product catalog over HTTP.
//
//	@title						Catalog API
//	@version					1.0
//	@description				Product catalog with token-protected mutations.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/99minutos/catalog-api/internal/api"
	"github.com/99minutos/catalog-api/internal/api/handler"
	"github.com/99minutos/catalog-api/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/catalog-api/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/catalog-api/internal/infrastructure/db/redis"
	"github.com/99minutos/catalog-api/internal/infrastructure/queue"
	"github.com/99minutos/catalog-api/internal/pkg/config"
	"github.com/99minutos/catalog-api/pkg/logger"
)

const serviceName = "catalog-api"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Version: version,
	})
	log.Info().Str("store", cfg.StoreDriver).Msg("starting catalog API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := api.Dependencies{
		Config:  cfg,
		Logger:  log,
		Version: version,
	}

	// --- Product store and audit trail ---
	var dispatcher *queue.Dispatcher
	switch cfg.StoreDriver {
	case config.StoreMemory:
		deps.Products = memory.NewProductRepository()
		log.Info().Msg("using in-memory product store, audit trail disabled")

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to mongo: %w", err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to disconnect from mongo")
			}
		}()

		deps.Products = mongostore.NewProductRepository(db)
		deps.Checks = append(deps.Checks, handler.DependencyCheck{
			Name:  "mongodb",
			Check: func(ctx context.Context) error { return mongostore.Ping(ctx, db) },
		})

		events := mongostore.NewEventRepository(db)
		if err := events.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure audit indexes")
		}
		dispatcher = queue.NewDispatcher(cfg.AuditWorkers, events, log)
		dispatcher.Start(ctx)
		deps.Events = dispatcher
	}

	// --- Idempotency keys ---
	if cfg.Redis.Enabled {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, idempotency keys disabled")
		} else {
			defer func() { _ = rdb.Close() }()
			deps.Idempotency = redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
			deps.Checks = append(deps.Checks, handler.DependencyCheck{
				Name:  "redis",
				Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
			})
		}
	}

	e := api.NewRouter(deps)
	addr := ":" + cfg.Port

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("address", addr).Msg("HTTP server started")
		serverErrors <- e.Start(addr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := e.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	stopAudit(cancel, dispatcher, log)
	log.Info().Msg("server shutdown completed")
	return nil
}

// stopAudit cancels the audit workers and waits while they flush queued events.
func stopAudit(cancel context.CancelFunc, d *queue.Dispatcher, log zerolog.Logger) {
	cancel()
	if d == nil {
		return
	}
	d.Wait()
	log.Info().Msg("audit workers stopped")
}
