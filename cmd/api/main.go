package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"catalog-admin/internal/config"
	"catalog-admin/internal/database"
	"catalog-admin/internal/logger"
	"catalog-admin/internal/repository/memory"
	"catalog-admin/internal/server"
	"catalog-admin/migrations"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// in-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

// openStore selects the catalog backend. The postgres store is migrated
// before use.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (server.Repositories, database.Service, error) {
	switch cfg.Catalog.Store {
	case config.StoreMemory:
		log.Warn("Using in-memory catalog store; data is lost on restart")
		return server.MemoryRepositories(memory.NewStore()), nil, nil
	case config.StorePostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return server.Repositories{}, nil, err
		}
		log.Info("Database health check", zap.Any("health", db.Health(ctx)))

		if err := database.RunMigrations(db.Pool(), migrations.FS, log); err != nil {
			db.Close()
			return server.Repositories{}, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("Database migrations completed successfully")
		return server.PostgresRepositories(db), db, nil
	default:
		return server.Repositories{}, nil, fmt.Errorf("unknown catalog store %q", cfg.Catalog.Store)
	}
}

// openRedis connects the rate limiter. A failed ping disables rate limiting
// instead of stopping startup.
func openRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.RateLimit <= 0 {
		log.Info("Rate limiting disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting catalog admin API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Catalog.Store),
	)

	ctx := context.Background()
	repos, db, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open catalog store", zap.Error(err))
	}
	rdb := openRedis(ctx, cfg.Redis, log)

	srv := server.NewServer(cfg, log, repos, db, rdb)

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
