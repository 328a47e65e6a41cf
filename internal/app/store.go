package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/database"
	"github.com/sundayezeilo/shortlinks/internal/link"
)

// Store is an open link store, whichever backend DATABASE_URL selected.
type Store struct {
	Driver config.Driver
	Links  link.Repository

	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backend's connections.
func (s *Store) Close() error {
	return s.close()
}

// OpenStore connects to the configured backend and, when cfg.Migrate is
// set, brings its schema up to date.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	if driver == config.DriverPostgres {
		pool, err := database.ConnectPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := migratePostgres(ctx, cfg, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{
			Driver: driver,
			Links:  link.NewPostgresRepository(pool, cfg.QueryTimeout),
			ping:   pool.Ping,
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil
	}

	db, err := database.OpenSQL(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := migrateSQL(ctx, cfg, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		Driver: driver,
		Links:  link.NewSQLRepository(db, cfg.QueryTimeout),
		ping:   db.PingContext,
		close:  db.Close,
	}, nil
}

// Migrate applies pending migrations regardless of cfg.Migrate.
func Migrate(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) error {
	cfg.Migrate = true
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return store.Close()
}

func migratePostgres(ctx context.Context, cfg config.DatabaseConfig, pool *pgxpool.Pool, logger *slog.Logger) error {
	if !cfg.Migrate {
		return nil
	}
	if err := database.MigratePostgres(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func migrateSQL(ctx context.Context, cfg config.DatabaseConfig, db *sql.DB, logger *slog.Logger) error {
	if !cfg.Migrate {
		return nil
	}
	if err := database.MigrateSQL(ctx, db, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
