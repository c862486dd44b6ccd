package mssql

// The adapter wires the MSSQL backend and dialect into the storage registries.

import (
	"context"

	"deload/internal/storage"
	msddl "deload/internal/storage/mssql/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.Optimizer  = (*wrappedRepo)(nil)
)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("mssql", msddl.Dialect{})
}

// wrappedRepo adapts *Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
