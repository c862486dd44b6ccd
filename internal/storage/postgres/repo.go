// Package postgres implements the hosted-database backend with pgx v5. Rows
// are streamed with COPY FROM, one COPY per batch, inside the unit
// transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"deload/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
	// MaxConns caps the pool; 0 keeps the pgxpool default.
	MaxConns int32
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", wrapPgErr(err))
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

// conn is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type conn interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// CopyFrom streams rows into table with COPY in an implicit transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return copyRows(ctx, r.pool, table, columns, rows)
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	return exec(ctx, r.pool, sql)
}

// WithTx runs fn in a transaction that commits when fn returns nil.
func (r *Repository) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(txAdapter{tx})
	})
}

// Count returns SELECT COUNT(*) for table.
func (r *Repository) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	q := "SELECT COUNT(*) FROM " + identifier(table).Sanitize()
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, wrapPgErr(err))
	}
	return n, nil
}

// Optimize refreshes planner statistics for the whole database.
func (r *Repository) Optimize(ctx context.Context) error {
	return r.Exec(ctx, "ANALYZE")
}

type txAdapter struct{ tx pgx.Tx }

func (t txAdapter) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return copyRows(ctx, t.tx, table, columns, rows)
}

func (t txAdapter) Exec(ctx context.Context, sql string) error {
	return exec(ctx, t.tx, sql)
}

func copyRows(ctx context.Context, c conn, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := c.CopyFrom(ctx, identifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, wrapPgErr(err))
	}
	return n, nil
}

func exec(ctx context.Context, c conn, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := c.Exec(ctx, sql); err != nil {
		return fmt.Errorf("exec: %w", wrapPgErr(err))
	}
	return nil
}

// identifier splits a possibly schema-qualified name ("public.anno") into a
// pgx.Identifier, dropping empty segments.
func identifier(name string) pgx.Identifier {
	parts := strings.Split(name, ".")
	out := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pgError surfaces the server's detail and SQLSTATE alongside the message
// while keeping the original error reachable with errors.As.
type pgError struct{ err *pgconn.PgError }

func (e *pgError) Error() string {
	msg := e.err.Message
	if e.err.Detail != "" {
		msg += ": " + e.err.Detail
	}
	return fmt.Sprintf("%s (SQLSTATE %s)", msg, e.err.SQLState())
}

func (e *pgError) Unwrap() error { return e.err }

func wrapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &pgError{err: pgErr}
	}
	return err
}
