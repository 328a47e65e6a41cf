package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // registers "libsql"
	_ "modernc.org/sqlite"                               // registers "sqlite"

	"github.com/sundayezeilo/shortlinks/internal/config"
)

// OpenSQL opens a SQLite file through modernc.org/sqlite, or a remote
// libSQL database, depending on the DATABASE_URL scheme.
func OpenSQL(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	var driverName, dsn string
	switch driver {
	case config.DriverSQLite:
		driverName, dsn = "sqlite", sqliteDSN(cfg.URL)
	case config.DriverLibSQL:
		driverName, dsn = "libsql", cfg.URL
	default:
		return nil, fmt.Errorf("driver %q is not served by database/sql", driver)
	}

	logger.Info("connecting to database", "driver", driver)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == config.DriverSQLite {
		// One writer at a time; also keeps ":memory:" a single database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(int(cfg.MaxConns))
		db.SetMaxIdleConns(int(cfg.MinConns))
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return db, nil
}

// sqliteDSN turns a "sqlite:" URL into a modernc DSN. "file:" URLs are
// already understood by the driver.
func sqliteDSN(url string) string {
	if rest, ok := strings.CutPrefix(url, "sqlite:"); ok {
		return strings.TrimPrefix(rest, "//")
	}
	return url
}
