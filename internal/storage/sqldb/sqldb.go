// Package sqldb is the database/sql plumbing shared by the SQLite, libSQL and
// SQL Server backends: connection setup, transactions, row-by-row prepared
// inserts and COUNT(*) read-back through sqlx.
//
// Backends with a native bulk path (SQL Server bulk copy) plug it in through
// Options.Bulk; everyone else gets a prepared INSERT executed per row inside
// the current transaction.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"deload/internal/storage"
)

// BulkFn inserts rows into table inside tx using a backend-native path.
type BulkFn func(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int64, error)

// Options configures a DB.
type Options struct {
	// Name prefixes error messages, e.g. "sqlite".
	Name string
	// Driver is the database/sql driver name.
	Driver string
	DSN    string

	// QuoteIdent quotes one identifier segment.
	QuoteIdent func(string) string
	// Bulk replaces the prepared INSERT path when set.
	Bulk BulkFn

	// MaxOpenConns caps the pool; 0 leaves the database/sql default.
	MaxOpenConns int
	// PingTimeout bounds the initial ping. Defaults to 5s.
	PingTimeout time.Duration
}

// DB is a database/sql connection pool implementing everything in
// storage.Repository except Close semantics owned by the backend.
type DB struct {
	db   *sqlx.DB
	opts Options
}

// Open opens the pool and pings it.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", opts.Name)
	}
	if opts.QuoteIdent == nil {
		return nil, fmt.Errorf("%s: QuoteIdent must not be nil", opts.Name)
	}
	db, err := sqlx.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", opts.Name, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", opts.Name, err)
	}
	return &DB{db: db, opts: opts}, nil
}

// SQLX exposes the pool for read queries.
func (d *DB) SQLX() *sqlx.DB { return d.db }

// Close closes the pool.
func (d *DB) Close() { _ = d.db.Close() }

// Exec executes a single statement outside any transaction.
func (d *DB) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: exec: %w", d.opts.Name, err)
	}
	return nil
}

// CopyFrom inserts rows in a transaction of its own.
func (d *DB) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	var n int64
	err := d.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		n, err = tx.CopyFrom(ctx, table, columns, rows)
		return err
	})
	return n, err
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic.
func (d *DB) WithTx(ctx context.Context, fn func(storage.Tx) error) (err error) {
	sqlTx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", d.opts.Name, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&tx{tx: sqlTx, d: d}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", d.opts.Name, err)
	}
	return nil
}

// Count returns SELECT COUNT(*) FROM table.
func (d *DB) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := d.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+d.quoteFQN(table)); err != nil {
		return 0, fmt.Errorf("%s: count %s: %w", d.opts.Name, table, err)
	}
	return n, nil
}

func (d *DB) quoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.opts.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}

// InsertSQL renders INSERT INTO <table> (<cols>) VALUES (?, ...) rebound to
// the driver's placeholder style.
func (d *DB) InsertSQL(table string, columns []string) string {
	cols := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = d.opts.QuoteIdent(c)
		marks[i] = "?"
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.quoteFQN(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	return d.db.Rebind(q)
}

// tx is the storage.Tx handed to WithTx callbacks.
type tx struct {
	tx *sqlx.Tx
	d  *DB
}

func (t *tx) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: exec: %w", t.d.opts.Name, err)
	}
	return nil
}

// CopyFrom inserts rows with the backend bulk hook or a prepared INSERT.
// Every row must have len(columns) values.
func (t *tx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	name := t.d.opts.Name
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: CopyFrom: columns must not be empty", name)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if t.d.opts.Bulk != nil {
		return t.d.opts.Bulk(ctx, t.tx.Tx, table, columns, rows)
	}

	stmt, err := t.tx.PrepareContext(ctx, t.d.InsertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("%s: prepare insert: %w", name, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return inserted, fmt.Errorf("%s: CopyFrom: row length %d != columns length %d", name, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("%s: insert into %s: %w", name, table, err)
		}
		inserted++
	}
	return inserted, nil
}
