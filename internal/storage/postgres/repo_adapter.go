package postgres

// The adapter registers the "postgres" backend and its DDL dialect with the
// storage registries so callers stay backend-agnostic:
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
//	defer repo.Close()
//	err = storage.EnsureSchema(ctx, "postgres", repo, schema.Tables(record.Wide))

import (
	"context"

	"deload/internal/storage"
	pgddl "deload/internal/storage/postgres/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo implements storage.Repository by delegating to *Repository
// while providing a Close method that calls the close function returned by
// NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.Optimizer  = (*wrappedRepo)(nil)
)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("postgres", pgddl.Dialect{})
}
