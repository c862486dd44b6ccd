package ddl

import (
	"reflect"
	"strings"
	"testing"

	gddl "deload/internal/ddl"
)

func TestDialect_CreateTable(t *testing.T) {
	t.Parallel()

	got, err := Dialect{}.CreateTable(gddl.TableDef{
		FQN: "de_results",
		Columns: []gddl.ColumnDef{
			{Name: "id", Type: "text"},
			{Name: "log2FC", Type: "float"},
			{Name: "logcpm", Type: "float", Nullable: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"de_results\" (\n  \"id\" TEXT NOT NULL,\n  \"log2FC\" REAL NOT NULL,\n  \"logcpm\" REAL\n);"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestDialect_CreateTableErrorsArePrefixed(t *testing.T) {
	t.Parallel()

	_, err := Dialect{}.CreateTable(gddl.TableDef{FQN: "t"})
	if err == nil || !strings.HasPrefix(err.Error(), "sqlite ddl:") {
		t.Fatalf("err = %v, want sqlite ddl prefix", err)
	}
}

func TestDialect_CreateIndex(t *testing.T) {
	t.Parallel()

	got, err := Dialect{}.CreateIndex(gddl.IndexDef{Name: "idx_anno_symbol", Table: "anno", Columns: []string{"symbol"}})
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if want := `CREATE INDEX IF NOT EXISTS "idx_anno_symbol" ON "anno" ("symbol");`; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestDialect_Truncate(t *testing.T) {
	t.Parallel()

	got := Dialect{}.Truncate("anno", "de_results")
	want := []string{`DELETE FROM "anno";`, `DELETE FROM "de_results";`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Truncate = %v, want %v", got, want)
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	if got := QuoteIdent(`weird"name`); got != `"weird""name"` {
		t.Fatalf("QuoteIdent = %s", got)
	}
}
