// Package sqlite implements the embedded-database backend on top of
// storage/sqldb. SQLite has no bulk-load API like Postgres COPY; rows go
// through a prepared INSERT inside the unit transaction, which keeps
// throughput acceptable for millions of rows.
//
// The same code serves hosted libSQL databases (kind "libsql"), which speak
// the SQLite dialect over HTTP.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"deload/internal/storage/sqldb"
	sqliteddl "deload/internal/storage/sqlite/ddl"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Repository is a SQLite-backed storage.Repository.
type Repository struct {
	*sqldb.DB
	cfg  Config
	path string
}

// NewRepository opens (and optionally recreates) a SQLite database and
// returns a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	path := Path(cfg.DSN)
	if cfg.Fresh && path != "" {
		if err := RemoveDatabase(path); err != nil {
			return nil, nil, err
		}
	}

	db, err := sqldb.Open(ctx, sqldb.Options{
		Name:       "sqlite",
		Driver:     "sqlite",
		DSN:        cfg.DSN,
		QuoteIdent: sqliteddl.QuoteIdent,
		// One writer; a second pooled connection would only hit SQLITE_BUSY.
		MaxOpenConns: 1,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := db.Exec(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, nil, err
	}
	if cfg.WAL {
		if err := db.Exec(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}

	r := &Repository{DB: db, cfg: cfg, path: path}
	return r, db.Close, nil
}

// Optimize refreshes planner statistics.
func (r *Repository) Optimize(ctx context.Context) error {
	return r.Exec(ctx, "ANALYZE")
}

// Size returns the database file size including an uncheckpointed WAL.
func (r *Repository) Size() (int64, error) {
	if r.path == "" {
		return 0, fmt.Errorf("sqlite: in-memory database has no size")
	}
	var total int64
	for _, p := range []string{r.path, r.path + "-wal"} {
		fi, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("sqlite: stat %s: %w", p, err)
		}
		total += fi.Size()
	}
	return total, nil
}

// RemoveDatabase deletes path and its -wal/-shm siblings. Missing files are
// not an error.
func RemoveDatabase(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		err := os.Remove(p)
		if err == nil {
			log.Printf("sqlite: removed %s", p)
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("sqlite: remove %s: %w", p, err)
		}
	}
	return nil
}

// LibSQL is a hosted libSQL database. It shares the SQLite dialect but has no
// local file, so Fresh, WAL and Size do not apply.
type LibSQL struct {
	*sqldb.DB
}

// NewLibSQL opens a libSQL database, e.g. "libsql://db-org.turso.io?authToken=...".
func NewLibSQL(ctx context.Context, dsn string) (*LibSQL, func(), error) {
	db, err := sqldb.Open(ctx, sqldb.Options{
		Name:        "libsql",
		Driver:      "libsql",
		DSN:         dsn,
		QuoteIdent:  sqliteddl.QuoteIdent,
		PingTimeout: 15 * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}
	return &LibSQL{DB: db}, db.Close, nil
}

// Optimize refreshes planner statistics.
func (l *LibSQL) Optimize(ctx context.Context) error {
	return l.Exec(ctx, "ANALYZE")
}
