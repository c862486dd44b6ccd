package query

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v3"

	"deload/internal/record"
	"deload/internal/schema"
	"deload/internal/storage"
	_ "deload/internal/storage/sqlite"
)

var testAnno = []record.Annotation{
	{ID: "chr1:1-2", Symbol: "TP53"},
	{ID: "chr1:3-4", Symbol: "tp53"},
	{ID: "chr2:1-2", Symbol: "BRCA1"},
}

func de(at, cell, id string, padj float64) record.DEResult {
	return record.DEResult{AnalysisType: at, CellType: cell, ID: id, Log2FC: 1, PValue: padj / 2, PAdj: padj, BaseMean: 10}
}

// seed creates a sqlite database of the given shape and returns a Store on it.
func seed(t *testing.T, shape record.Shape, rows []record.DEResult) *Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "q.db")

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: path})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if err := storage.EnsureSchema(ctx, "sqlite", repo, schema.Tables(shape)); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	var annoRows, deRows [][]any
	for _, a := range testAnno {
		annoRows = append(annoRows, a.Row())
	}
	for _, r := range rows {
		deRows = append(deRows, r.Row(shape))
	}
	if _, err := repo.CopyFrom(ctx, schema.AnnoTable, schema.Anno().ColumnNames(), annoRows); err != nil {
		t.Fatalf("copy anno: %v", err)
	}
	if _, err := repo.CopyFrom(ctx, schema.DETable, schema.DE(shape).ColumnNames(), deRows); err != nil {
		t.Fatalf("copy de: %v", err)
	}
	repo.Close()

	db, err := Open(ctx, "sqlite", path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, shape)
}

func ids(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func narrowStore(t *testing.T) *Store {
	return seed(t, record.Narrow, []record.DEResult{
		de("dsEER", "B cell", "chr1:1-2", 0.01),
		de("dsEER", "B cell", "chr1:3-4", 0.2),
		de("dsEER", "B cell", "chr2:1-2", 0.03),
		de("dsEER", "NK", "chr1:1-2", 0.5),
	})
}

func TestSearch_Narrow(t *testing.T) {
	t.Parallel()

	s := narrowStore(t)
	ctx := context.Background()

	hits, err := s.Search(ctx, Params{CellType: "B cell"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := ids(hits); !reflect.DeepEqual(got, []string{"chr1:1-2", "chr2:1-2"}) {
		t.Fatalf("significant ids = %v", got)
	}
	if hits[0].PAdj != 0.01 || hits[0].BaseMean != 10 || hits[0].AnalysisType.Valid {
		t.Fatalf("hit = %+v", hits[0])
	}

	hits, err = s.Search(ctx, Params{CellType: "B cell", Symbol: " tp53 "})
	if err != nil {
		t.Fatalf("Search symbol: %v", err)
	}
	if got := ids(hits); !reflect.DeepEqual(got, []string{"chr1:1-2", "chr1:3-4"}) {
		t.Fatalf("symbol ids = %v", got)
	}
	if hits[0].Symbol != null.StringFrom("TP53") {
		t.Fatalf("symbol = %+v", hits[0].Symbol)
	}

	hits, err = s.Search(ctx, Params{CellType: "B cell", Threshold: 1, Limit: 1})
	if err != nil || len(hits) != 1 {
		t.Fatalf("limit: hits=%v err=%v", hits, err)
	}

	hits, err = s.Search(ctx, Params{CellType: "Unknown"})
	if err != nil || hits == nil || len(hits) != 0 {
		t.Fatalf("unknown cell: hits=%#v err=%v, want empty non-nil", hits, err)
	}
}

func TestSearch_RequiresCellType(t *testing.T) {
	t.Parallel()

	s := New(sqlx.NewDb(nil, "sqlite"), record.Narrow)
	if _, err := s.Search(context.Background(), Params{}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("err = %v, want ErrInvalidParams", err)
	}
}

func TestParams_Normalize(t *testing.T) {
	t.Parallel()

	p, err := Params{CellType: " B cell ", Symbol: " tp53", Limit: 5000}.normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := Params{AnalysisType: DefaultAnalysisType, CellType: "B cell", Symbol: "TP53", Threshold: DefaultThreshold, Limit: MaxLimit}
	if p != want {
		t.Fatalf("normalize = %+v, want %+v", p, want)
	}
}

func TestCellTypes_Narrow(t *testing.T) {
	t.Parallel()

	got, err := narrowStore(t).CellTypes(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("CellTypes: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"B cell", "NK"}) {
		t.Fatalf("CellTypes = %v", got)
	}
}

func wideStore(t *testing.T) *Store {
	r1 := de("mRNA", "Mono", "r1", 0.3)
	r1.Symbol, r1.EnsgID = null.StringFrom("TP53"), null.StringFrom("ENSG1")
	r2 := de("mRNA", "Mono", "r2", 0.01)
	r2.Symbol, r2.EnsgID = null.StringFrom("BRCA1"), null.StringFrom("ENSG2")
	return seed(t, record.Wide, []record.DEResult{r1, r2, de("dsEER", "Mono", "chr1:1-2", 0.02), de("dsEER", "T", "chr2:1-2", 0.02)})
}

func TestSearch_Wide(t *testing.T) {
	t.Parallel()

	s := wideStore(t)
	ctx := context.Background()

	cases := []struct {
		name string
		p    Params
		want []string
	}{
		{"gene by ensg", Params{AnalysisType: "mRNA", CellType: "Mono", Symbol: "ensg1"}, []string{"r1"}},
		{"gene by symbol", Params{AnalysisType: "mRNA", CellType: "Mono", Symbol: "BRCA1"}, []string{"r2"}},
		{"gene significant", Params{AnalysisType: "mRNA", CellType: "Mono"}, []string{"r2"}},
		{"dsrna via anno", Params{AnalysisType: "dsEER", CellType: "Mono", Symbol: "TP53"}, []string{"chr1:1-2"}},
		{"dsrna default type", Params{CellType: "Mono"}, []string{"chr1:1-2"}},
	}
	for _, tc := range cases {
		hits, err := s.Search(ctx, tc.p)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got := ids(hits); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: ids = %v, want %v", tc.name, got, tc.want)
		}
	}

	types, err := s.CellTypes(ctx, "dsEER")
	if err != nil {
		t.Fatalf("CellTypes: %v", err)
	}
	if !reflect.DeepEqual(types, []string{"Mono", "T"}) {
		t.Fatalf("CellTypes(dsEER) = %v", types)
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "duckdb", "x"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
