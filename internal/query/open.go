package query

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// drivers maps storage kinds to database/sql driver names. The sqlite,
// libsql and sqlserver drivers are registered by the storage backends.
var drivers = map[string]string{
	"sqlite":   "sqlite",
	"libsql":   "libsql",
	"postgres": "pgx",
	"mssql":    "sqlserver",
}

// Open connects a read-only query handle for a storage kind.
func Open(ctx context.Context, kind, dsn string) (*sqlx.DB, error) {
	driver, ok := drivers[kind]
	if !ok {
		return nil, fmt.Errorf("query: unsupported storage.kind=%s", kind)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("query: open %s: %w", kind, err)
	}
	pctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("query: ping %s: %w", kind, err)
	}
	return db, nil
}
