package sqlite

// The adapter wires the SQLite and libSQL backends into the storage factory;
// callers obtain them through storage.New without importing this package.

import (
	"context"

	"deload/internal/storage"
	sqliteddl "deload/internal/storage/sqlite/ddl"
)

// Test hooks pointing at the real constructors.
var (
	newRepository = NewRepository
	newLibSQL     = NewLibSQL
)

// wrappedRepo adapts *Repository to storage.Repository, adding a Close method
// that calls the cleanup function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

type wrappedLibSQL struct {
	*LibSQL
	closeFn func()
}

func (w *wrappedLibSQL) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.Optimizer  = (*wrappedRepo)(nil)
	_ storage.Sizer      = (*wrappedRepo)(nil)
	_ storage.Repository = (*wrappedLibSQL)(nil)
	_ storage.Optimizer  = (*wrappedLibSQL)(nil)
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Fresh: cfg.Fresh, WAL: cfg.WAL})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.Register("libsql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newLibSQL(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &wrappedLibSQL{LibSQL: r, closeFn: closeFn}, nil
	})

	storage.RegisterDialect("sqlite", sqliteddl.Dialect{})
	storage.RegisterDialect("libsql", sqliteddl.Dialect{})
}
