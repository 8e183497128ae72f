package database

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// withGoose bridges the pool to database/sql for goose and points goose at
// the migrations in fsys for the duration of fn.
func withGoose(pool *pgxpool.Pool, fsys fs.FS, fn func(db *sql.DB) error) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return fn(db)
}

// RunMigrations applies every pending migration found in fsys.
func RunMigrations(pool *pgxpool.Pool, fsys fs.FS, logger *zap.Logger) error {
	return withGoose(pool, fsys, func(db *sql.DB) error {
		logger.Info("Checking for pending migrations...")

		if err := goose.Up(db, "."); err != nil {
			logger.Error("Failed to run migrations", zap.Error(err))
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		version, err := goose.GetDBVersion(db)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		logger.Info("Migrations completed successfully", zap.Int64("version", version))
		return nil
	})
}

// SchemaVersion reports the latest applied migration.
func SchemaVersion(pool *pgxpool.Pool, fsys fs.FS) (int64, error) {
	var version int64
	err := withGoose(pool, fsys, func(db *sql.DB) error {
		var err error
		version, err = goose.GetDBVersion(db)
		return err
	})
	return version, err
}
