package database

import (
	"context"
	"fmt"
	"time"

	"catalog-admin/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Service wraps the connection pool shared by the repositories.
type Service interface {
	Pool() *pgxpool.Pool
	// Health returns a map of health status information.
	Health(ctx context.Context) map[string]string
	Close()
}

type service struct {
	pool *pgxpool.Pool
}

// DSN builds the connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.Schema)
}

// New opens a pgx pool and verifies the connection.
func New(ctx context.Context, cfg config.DatabaseConfig) (Service, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &service{pool: pool}, nil
}

func (s *service) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	st := s.pool.Stat()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["total_connections"] = fmt.Sprintf("%d", st.TotalConns())
	stats["idle_connections"] = fmt.Sprintf("%d", st.IdleConns())
	stats["acquired_connections"] = fmt.Sprintf("%d", st.AcquiredConns())
	stats["max_connections"] = fmt.Sprintf("%d", st.MaxConns())
	return stats
}

func (s *service) Close() {
	s.pool.Close()
}
