package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"deload/internal/ddl"
	"deload/internal/storage"
)

func openTemp(t *testing.T, path string, fresh bool) *Repository {
	t.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: path, Fresh: fresh, WAL: true})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(closeFn)
	return r
}

var annoDef = ddl.TableDef{
	FQN:     "anno",
	Columns: []ddl.ColumnDef{{Name: "id", Type: "text"}, {Name: "symbol", Type: "text"}},
	Indexes: []ddl.IndexDef{{Name: "idx_anno_id", Table: "anno", Columns: []string{"id"}}},
}

func TestPath(t *testing.T) {
	t.Parallel()

	tests := []struct{ dsn, want string }{
		{"de.db", "de.db"},
		{"file:/tmp/de.db?_pragma=busy_timeout(5000)", "/tmp/de.db"},
		{":memory:", ""},
		{"file:x?mode=memory&cache=shared", ""},
	}
	for _, tt := range tests {
		if got := Path(tt.dsn); got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestRepository_SchemaCopyCountOptimize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "de.db")
	r := openTemp(t, path, false)

	if err := storage.EnsureSchema(ctx, "sqlite", r, []ddl.TableDef{annoDef}); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// Idempotent.
	if err := storage.EnsureSchema(ctx, "sqlite", r, []ddl.TableDef{annoDef}); err != nil {
		t.Fatalf("EnsureSchema twice: %v", err)
	}

	err := r.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.CopyFrom(ctx, "anno", []string{"id", "symbol"}, [][]any{{"chr1:1-2", "LOC1"}, {"chr1:3-4", "LOC2"}})
		return err
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if n, err := r.Count(ctx, "anno"); err != nil || n != 2 {
		t.Fatalf("Count = %d, %v; want 2", n, err)
	}
	if err := r.Optimize(ctx); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	size, err := r.Size()
	if err != nil || size <= 0 {
		t.Fatalf("Size = %d, %v", size, err)
	}

	if err := storage.Truncate(ctx, "sqlite", r, "anno"); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if n, _ := r.Count(ctx, "anno"); n != 0 {
		t.Fatalf("Count after truncate = %d", n)
	}
}

func TestNewRepository_FreshRemovesExisting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "de.db")

	r, closeFn, err := NewRepository(ctx, Config{DSN: path})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if err := storage.EnsureSchema(ctx, "sqlite", r, []ddl.TableDef{annoDef}); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if _, err := r.CopyFrom(ctx, "anno", []string{"id", "symbol"}, [][]any{{"a", "A"}}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	closeFn()

	r2 := openTemp(t, path, true)
	if _, err := r2.Count(ctx, "anno"); err == nil {
		t.Fatal("table survived a fresh open")
	}
}

func TestRemoveDatabase_MissingIsNotError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "x.db")
	if err := os.WriteFile(p+"-shm", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveDatabase(p); err != nil {
		t.Fatalf("RemoveDatabase: %v", err)
	}
	if _, err := os.Stat(p + "-shm"); !os.IsNotExist(err) {
		t.Fatalf("-shm sibling not removed: %v", err)
	}
}
