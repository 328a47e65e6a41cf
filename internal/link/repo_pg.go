package link

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

// DefaultQueryTimeout bounds a single store operation, pool acquisition included.
const DefaultQueryTimeout = 5 * time.Second

// pgQuerier is the subset of *pgxpool.Pool the repository uses.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgInsertLink = `INSERT INTO links (name, link) VALUES ($1, $2)
		RETURNING id, name, link, enabled, times_used`
	pgListLinks      = `SELECT id, name, link, enabled, times_used FROM links ORDER BY id`
	pgFindLinkByName = `SELECT id, name, link, enabled, times_used FROM links WHERE name = $1`
	pgUpdateLink     = `UPDATE links SET
		name = COALESCE($2::text, name),
		link = COALESCE($3::text, link),
		enabled = COALESCE($4::boolean, enabled)
		WHERE id = $1`
	pgDeleteLink     = `DELETE FROM links WHERE id = $1`
	pgIncrementUsage = `UPDATE links SET times_used = times_used + 1 WHERE id = $1`
)

type pgRepo struct {
	q       pgQuerier
	timeout time.Duration
}

// NewPostgresRepository returns a Repository backed by a pgx pool.
// A non-positive timeout selects DefaultQueryTimeout.
func NewPostgresRepository(q pgQuerier, timeout time.Duration) Repository {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &pgRepo{q: q, timeout: timeout}
}

// opContext detaches from the caller's cancellation so an issued write
// runs to completion after a client disconnect, bounded by the timeout.
func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (r *pgRepo) Insert(ctx context.Context, nl NewLink) (Link, error) {
	const op = "link.pgRepo.Insert"
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	var l Link
	err := r.q.QueryRow(ctx, pgInsertLink, nl.Name, nl.Link).
		Scan(&l.ID, &l.Name, &l.Link, &l.Enabled, &l.TimesUsed)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return l, nil
}

func (r *pgRepo) List(ctx context.Context) ([]Link, error) {
	const op = "link.pgRepo.List"
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	rows, err := r.q.Query(ctx, pgListLinks)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Link, error) {
		var l Link
		err := row.Scan(&l.ID, &l.Name, &l.Link, &l.Enabled, &l.TimesUsed)
		return l, err
	})
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if links == nil {
		links = []Link{}
	}
	return links, nil
}

func (r *pgRepo) FindByName(ctx context.Context, name string) (Link, error) {
	const op = "link.pgRepo.FindByName"
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	var l Link
	err := r.q.QueryRow(ctx, pgFindLinkByName, name).
		Scan(&l.ID, &l.Name, &l.Link, &l.Enabled, &l.TimesUsed)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return l, nil
}

func (r *pgRepo) Update(ctx context.Context, id int64, changes UpdatableLink) error {
	const op = "link.pgRepo.Update"
	return r.execOne(ctx, op, pgUpdateLink, id, changes.Name, changes.Link, changes.Enabled)
}

func (r *pgRepo) Delete(ctx context.Context, id int64) error {
	const op = "link.pgRepo.Delete"
	return r.execOne(ctx, op, pgDeleteLink, id)
}

func (r *pgRepo) IncrementUsage(ctx context.Context, id int64) error {
	const op = "link.pgRepo.IncrementUsage"
	return r.execOne(ctx, op, pgIncrementUsage, id)
}

// execOne runs a statement that must affect exactly one row.
func (r *pgRepo) execOne(ctx context.Context, op, query string, args ...any) error {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return mapRepoError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return errx.E(op, errx.NotFound, errNoRows)
	}
	return nil
}
