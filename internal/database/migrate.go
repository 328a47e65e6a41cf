package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations
var migrationsFS embed.FS

// Dialect selects the migration set.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type migration struct {
	version string
	sql     string
}

// loadMigrations returns the dialect's .sql files in lexical order. The
// file name without extension is the version.
func loadMigrations(dialect Dialect) ([]migration, error) {
	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations for %s: %w", dialect, err)
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		body, err := fs.ReadFile(migrationsFS, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, migration{
			version: strings.TrimSuffix(e.Name(), ".sql"),
			sql:     string(body),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// migrationTarget hides the driver differences between pgx and database/sql.
type migrationTarget interface {
	ensureVersionTable(ctx context.Context) error
	appliedVersions(ctx context.Context) (map[string]bool, error)
	apply(ctx context.Context, m migration) error
}

func migrate(ctx context.Context, target migrationTarget, dialect Dialect, logger *slog.Logger) error {
	migrations, err := loadMigrations(dialect)
	if err != nil {
		return err
	}
	if err := target.ensureVersionTable(ctx); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := target.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := target.apply(ctx, m); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		logger.Info("migration applied", "version", m.version, "dialect", dialect)
	}
	return nil
}

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`

// MigratePostgres applies pending migrations, each in its own transaction.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	return migrate(ctx, pgTarget{pool: pool}, DialectPostgres, logger)
}

type pgTarget struct {
	pool *pgxpool.Pool
}

func (t pgTarget) ensureVersionTable(ctx context.Context) error {
	_, err := t.pool.Exec(ctx, createVersionTable)
	return err
}

func (t pgTarget) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := t.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

func (t pgTarget) apply(ctx context.Context, m migration) error {
	return pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version)
		return err
	})
}

// MigrateSQL applies pending SQLite-dialect migrations through database/sql.
func MigrateSQL(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return migrate(ctx, sqlTarget{db: db}, DialectSQLite, logger)
}

type sqlTarget struct {
	db *sql.DB
}

func (t sqlTarget) ensureVersionTable(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, createVersionTable)
	return err
}

func (t sqlTarget) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (t sqlTarget) apply(ctx context.Context, m migration) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}
