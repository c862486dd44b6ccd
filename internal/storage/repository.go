// Package storage contains the backend-agnostic contracts the importers and
// the query side program against, plus the registries that let backends plug
// in by blank import (see storage/all).
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Tx is the write surface available both on a repository (autocommit) and
// inside WithTx.
type Tx interface {
	// CopyFrom bulk-inserts rows aligned to columns into table and returns the
	// number of rows the backend reports as inserted.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
}

// Repository is an open connection to one database.
type Repository interface {
	Tx
	// WithTx runs fn in a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error
	// Count returns SELECT COUNT(*) for table.
	Count(ctx context.Context, table string) (int64, error)
	Close()
}

// Optimizer is implemented by backends that can refresh planner statistics
// after a bulk load (ANALYZE).
type Optimizer interface {
	Optimize(ctx context.Context) error
}

// Sizer is implemented by file-backed databases that can report their
// on-disk size.
type Sizer interface {
	Size() (int64, error)
}

// Config is the backend-agnostic connection configuration.
type Config struct {
	Kind string
	DSN  string

	// Fresh asks file-backed backends to delete the existing database before
	// opening it. Ignored by server backends.
	Fresh bool
	// WAL enables write-ahead journaling where the backend supports it.
	WAL bool
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind. Backends call it from
// init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
