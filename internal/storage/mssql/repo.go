// Package mssql implements a Microsoft SQL Server backend on top of
// storage/sqldb, using the go-mssqldb bulk copy API for inserts.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	msddl "deload/internal/storage/mssql/ddl"
	"deload/internal/storage/sqldb"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	*sqldb.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sqldb.Open(ctx, sqldb.Options{
		Name:       "mssql",
		Driver:     "sqlserver",
		DSN:        cfg.DSN,
		QuoteIdent: msddl.QuoteIdent,
		Bulk:       bulkCopy,
	})
	if err != nil {
		return nil, nil, err
	}
	return &Repository{DB: db, cfg: cfg}, db.Close, nil
}

// Optimize refreshes statistics on every user table.
func (r *Repository) Optimize(ctx context.Context) error {
	return r.Exec(ctx, "EXEC sp_updatestats")
}

// bulkCopy streams rows through a prepared bulk-copy statement inside tx.
func bulkCopy(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(msFQN(table), mssql.BulkOptions{}, columns...))
	if err != nil {
		return 0, fmt.Errorf("mssql: prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("mssql: bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("mssql: bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mssql: rows affected: %w", err)
	}
	return n, nil
}

// msFQN quotes a possibly schema-qualified name like "dbo.anno" to
// "[dbo].[anno]".
func msFQN(name string) string { return msddl.Style.QuoteFQN(name) }
