package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowScanner is satisfied by pgx.Row and *sql.Row
type rowScanner interface {
	Scan(dest ...any) error
}

// rowIterator is the common subset of pgx.Rows and *sql.Rows
type rowIterator interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// executor runs SQL against a pool, a database handle or an open
// transaction. The query code in this package only talks to an executor, so
// the same statements serve PostgreSQL and SQLite.
type executor interface {
	QueryRow(ctx context.Context, query string, args ...any) rowScanner
	Query(ctx context.Context, query string, args ...any) (rowIterator, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

// pgxQuerier is implemented by *pgxpool.Pool and pgx.Tx
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgxExecutor struct {
	q pgxQuerier
}

func (e pgxExecutor) QueryRow(ctx context.Context, query string, args ...any) rowScanner {
	return e.q.QueryRow(ctx, query, args...)
}

func (e pgxExecutor) Query(ctx context.Context, query string, args ...any) (rowIterator, error) {
	rows, err := e.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (e pgxExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := e.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// sqlQuerier is implemented by *sql.DB and *sql.Tx
type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqlExecutor struct {
	q sqlQuerier
}

func (e sqlExecutor) QueryRow(ctx context.Context, query string, args ...any) rowScanner {
	return e.q.QueryRowContext(ctx, query, args...)
}

func (e sqlExecutor) Query(ctx context.Context, query string, args ...any) (rowIterator, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (e sqlExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// sqlRows drops the error returned by (*sql.Rows).Close; Err reports it
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	_ = r.Rows.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}
