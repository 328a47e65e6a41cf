package link

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

func isNameUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}

	// libsql reports remote failures as plain text, and modernc only
	// returns extended codes when they are enabled on the connection.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}

	return strings.Contains(err.Error(), "constraint failed")
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows), errors.Is(err, errNoRows):
		return errx.E(op, errx.NotFound, err)

	case isNameUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	case isIntegrityViolation(err):
		return errx.E(op, errx.Constraint, err)

	default:
		return errx.E(op, errx.Internal, err)
	}
}

// errNoRows marks an UPDATE or DELETE that matched nothing.
var errNoRows = errors.New("no rows affected")
