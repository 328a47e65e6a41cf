package link

import (
	"context"
	"database/sql"
	"time"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

const (
	sqlInsertLink = `INSERT INTO links (name, link) VALUES (?, ?)
		RETURNING id, name, link, enabled, times_used`
	sqlListLinks      = `SELECT id, name, link, enabled, times_used FROM links ORDER BY id`
	sqlFindLinkByName = `SELECT id, name, link, enabled, times_used FROM links WHERE name = ?`
	sqlUpdateLink     = `UPDATE links SET
		name = COALESCE(?, name),
		link = COALESCE(?, link),
		enabled = COALESCE(?, enabled)
		WHERE id = ?`
	sqlDeleteLink     = `DELETE FROM links WHERE id = ?`
	sqlIncrementUsage = `UPDATE links SET times_used = times_used + 1 WHERE id = ?`
)

// sqlRepo serves SQLite files through modernc.org/sqlite and remote
// libSQL databases through libsql-client-go; both speak the SQLite dialect.
type sqlRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLRepository returns a Repository backed by a database/sql handle
// opened with the "sqlite" or "libsql" driver.
func NewSQLRepository(db *sql.DB, timeout time.Duration) Repository {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &sqlRepo{db: db, timeout: timeout}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(s scanner) (Link, error) {
	var l Link
	err := s.Scan(&l.ID, &l.Name, &l.Link, &l.Enabled, &l.TimesUsed)
	return l, err
}

func (r *sqlRepo) Insert(ctx context.Context, nl NewLink) (Link, error) {
	const op = "link.sqlRepo.Insert"
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	l, err := scanLink(r.db.QueryRowContext(ctx, sqlInsertLink, nl.Name, nl.Link))
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return l, nil
}

func (r *sqlRepo) List(ctx context.Context) ([]Link, error) {
	const op = "link.sqlRepo.List"
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, sqlListLinks)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, mapRepoError(op, err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapRepoError(op, err)
	}
	return links, nil
}

func (r *sqlRepo) FindByName(ctx context.Context, name string) (Link, error) {
	const op = "link.sqlRepo.FindByName"
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	l, err := scanLink(r.db.QueryRowContext(ctx, sqlFindLinkByName, name))
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return l, nil
}

func (r *sqlRepo) Update(ctx context.Context, id int64, changes UpdatableLink) error {
	const op = "link.sqlRepo.Update"
	return r.execOne(ctx, op, sqlUpdateLink,
		nullString(changes.Name), nullString(changes.Link), nullBool(changes.Enabled), id)
}

func (r *sqlRepo) Delete(ctx context.Context, id int64) error {
	const op = "link.sqlRepo.Delete"
	return r.execOne(ctx, op, sqlDeleteLink, id)
}

func (r *sqlRepo) IncrementUsage(ctx context.Context, id int64) error {
	const op = "link.sqlRepo.IncrementUsage"
	return r.execOne(ctx, op, sqlIncrementUsage, id)
}

func (r *sqlRepo) execOne(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapRepoError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errx.E(op, errx.Internal, err)
	}
	if n == 0 {
		return errx.E(op, errx.NotFound, errNoRows)
	}
	return nil
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// nullBool stores booleans as 0/1, the SQLite convention.
func nullBool(p *bool) any {
	switch {
	case p == nil:
		return nil
	case *p:
		return int64(1)
	default:
		return int64(0)
	}
}
