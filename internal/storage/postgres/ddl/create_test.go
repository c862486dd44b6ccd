package ddl

import (
	"reflect"
	"testing"

	gddl "deload/internal/ddl"
)

func TestDialect_CreateTable(t *testing.T) {
	t.Parallel()

	got, err := Dialect{}.CreateTable(gddl.TableDef{
		FQN: "public.de_results",
		Columns: []gddl.ColumnDef{
			{Name: "analysis_type", Type: "text"},
			{Name: "symbol", Type: "text", Nullable: true},
			{Name: "padj", Type: "float"},
		},
	})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"public\".\"de_results\" (\n  \"analysis_type\" TEXT NOT NULL,\n  \"symbol\" TEXT,\n  \"padj\" DOUBLE PRECISION NOT NULL\n);"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestDialect_CreateIndex(t *testing.T) {
	t.Parallel()

	got, err := Dialect{}.CreateIndex(gddl.IndexDef{Name: "idx_de_symbol", Table: "de_results", Columns: []string{"symbol"}})
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if want := `CREATE INDEX IF NOT EXISTS "idx_de_symbol" ON "de_results" ("symbol");`; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestDialect_Truncate(t *testing.T) {
	t.Parallel()

	if got := (Dialect{}).Truncate(); got != nil {
		t.Fatalf("Truncate() = %v, want nil", got)
	}
	got := Dialect{}.Truncate("anno", "public.de_results")
	want := []string{`TRUNCATE TABLE "anno", "public"."de_results";`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Truncate = %v, want %v", got, want)
	}
}
