package ddl

import (
	"strings"
	"testing"
)

func testStyle() Style {
	return Style{
		Name:        "test",
		QuoteIdent:  DoubleQuote,
		MapType:     strings.ToUpper,
		IfNotExists: true,
	}
}

// TestBuildCreateTableSQL verifies rendering and input validation with
// table-driven subtests.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{FQN: " ", Columns: []ColumnDef{{Name: "id", Type: "text"}}},
			errContains: "test ddl: table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "anno"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "anno", Columns: []ColumnDef{{Name: "", Type: "text"}}},
			errContains: "column with empty name",
		},
		{
			name: "nullable and not null columns",
			def: TableDef{FQN: "anno", Columns: []ColumnDef{
				{Name: "id", Type: "text"},
				{Name: "symbol", Type: "text", Nullable: true},
			}},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"anno\" (\n  \"id\" TEXT NOT NULL,\n  \"symbol\" TEXT\n);",
		},
		{
			name: "schema qualified with primary key",
			def: TableDef{FQN: "public.t", Columns: []ColumnDef{
				{Name: "a", Type: "int", PrimaryKey: true},
				{Name: "b", Type: "int", PrimaryKey: true},
			}},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"public\".\"t\" (\n  \"a\" INT NOT NULL,\n  \"b\" INT NOT NULL,\n  PRIMARY KEY (\"a\", \"b\")\n);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := testStyle().BuildCreateTableSQL(tt.def)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("err = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("SQL mismatch\ngot:\n%s\nwant:\n%s", got, tt.wantSQL)
			}
		})
	}
}

func TestBuildCreateIndexSQL(t *testing.T) {
	t.Parallel()

	s := testStyle()
	got, err := s.BuildCreateIndexSQL(IndexDef{Name: "idx_de_cell_padj", Table: "de_results", Columns: []string{"cell_type", "padj"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `CREATE INDEX IF NOT EXISTS "idx_de_cell_padj" ON "de_results" ("cell_type", "padj");`
	if got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}

	s.IfNotExists = false
	got, _ = s.BuildCreateIndexSQL(IndexDef{Name: "i", Table: "t", Columns: []string{"c"}})
	if strings.Contains(got, "IF NOT EXISTS") {
		t.Fatalf("IfNotExists=false still rendered guard: %s", got)
	}

	for _, bad := range []IndexDef{
		{Table: "t", Columns: []string{"c"}},
		{Name: "i", Columns: []string{"c"}},
		{Name: "i", Table: "t"},
	} {
		if _, err := s.BuildCreateIndexSQL(bad); err == nil {
			t.Fatalf("expected error for %+v", bad)
		}
	}
}

func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"users", `"users"`},
		{"public.users", `"public"."users"`},
		{".public..users.", `"public"."users"`},
		{`sch."table"`, `"sch"."""table"""`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := testStyle().QuoteFQN(tt.in); got != tt.want {
			t.Errorf("QuoteFQN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColumnNames(t *testing.T) {
	t.Parallel()

	def := TableDef{Columns: []ColumnDef{{Name: "id"}, {Name: "symbol"}}}
	if got := strings.Join(def.ColumnNames(), ","); got != "id,symbol" {
		t.Fatalf("ColumnNames() = %s", got)
	}
}
