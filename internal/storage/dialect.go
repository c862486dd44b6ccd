package storage

import (
	"context"
	"fmt"
	"sync"

	"deload/internal/ddl"
)

// Dialect renders backend-specific DDL. Backends register one per kind at
// init time so callers can create and reset tables knowing only the kind.
type Dialect interface {
	CreateTable(t ddl.TableDef) (string, error)
	CreateIndex(ix ddl.IndexDef) (string, error)
	// Truncate returns the statements that empty tables, in execution order.
	Truncate(tables ...string) []string
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect registers (or replaces) the Dialect for kind.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the Dialect registered for kind.
func DialectFor(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no dialect registered for storage.kind=%q", kind)
	}
	return d, nil
}

// EnsureSchema creates every table and its indexes if they do not exist.
func EnsureSchema(ctx context.Context, kind string, x Tx, tables []ddl.TableDef) error {
	d, err := DialectFor(kind)
	if err != nil {
		return err
	}
	for _, t := range tables {
		stmt, err := d.CreateTable(t)
		if err != nil {
			return err
		}
		if err := x.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", t.FQN, err)
		}
		for _, ix := range t.Indexes {
			stmt, err := d.CreateIndex(ix)
			if err != nil {
				return err
			}
			if err := x.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create index %s: %w", ix.Name, err)
			}
		}
	}
	return nil
}

// Truncate empties the given tables.
func Truncate(ctx context.Context, kind string, x Tx, tables ...string) error {
	d, err := DialectFor(kind)
	if err != nil {
		return err
	}
	for _, stmt := range d.Truncate(tables...) {
		if err := x.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
	}
	return nil
}
