package record

import (
	"errors"
	"reflect"
	"testing"
)

func TestInferLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Layout
	}{
		{"dsEER", LayoutDSRNA},
		{"dsRIP", LayoutDSRNA},
		{"DSfoo", LayoutDSRNA},
		{"mRNA", LayoutGene},
		{"ncRNA", LayoutGene},
		{"", LayoutGene},
	}
	for _, tt := range tests {
		if got := InferLayout(tt.in); got != tt.want {
			t.Errorf("InferLayout(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDE_DSRNA(t *testing.T) {
	t.Parallel()

	fields := []string{"chr1:100-200", "1.5", "3.2", "0.001", "0.01", "42.5"}
	got, err := ParseDE(LayoutDSRNA, "dsEER", "Th1 cell", fields)
	if err != nil {
		t.Fatalf("ParseDE error: %v", err)
	}
	if got.ID != "chr1:100-200" || got.CellType != "Th1 cell" || got.AnalysisType != "dsEER" {
		t.Fatalf("identity fields = %+v", got)
	}
	if got.Log2FC != 1.5 || got.PValue != 0.001 || got.PAdj != 0.01 || got.BaseMean != 42.5 {
		t.Fatalf("numeric fields = %+v", got)
	}
	if !got.LogCPM.Valid || got.LogCPM.Float64 != 3.2 {
		t.Fatalf("logCPM = %+v, want 3.2", got.LogCPM)
	}
	if got.Symbol.Valid || got.EnsgID.Valid {
		t.Fatalf("dsRNA layout should leave symbol/ensg NULL: %+v", got)
	}

	wantNarrow := []any{"chr1:100-200", "Th1 cell", 1.5, 0.001, 0.01, 42.5}
	if row := got.Row(Narrow); !reflect.DeepEqual(row, wantNarrow) {
		t.Fatalf("Row(Narrow) = %#v, want %#v", row, wantNarrow)
	}
	wantWide := []any{"dsEER", "Th1 cell", "chr1:100-200", nil, nil, 1.5, 3.2, 0.001, 0.01, 42.5}
	if row := got.Row(Wide); !reflect.DeepEqual(row, wantWide) {
		t.Fatalf("Row(Wide) = %#v, want %#v", row, wantWide)
	}
}

func TestParseDE_Gene(t *testing.T) {
	t.Parallel()

	fields := []string{"raw1", "ENSG0001", "TP53", "-0.5", "2", "0.2", "0.3", "10"}
	got, err := ParseDE(LayoutGene, "mRNA", "NK cell", fields)
	if err != nil {
		t.Fatalf("ParseDE error: %v", err)
	}
	want := []any{"mRNA", "NK cell", "raw1", "TP53", "ENSG0001", -0.5, 2.0, 0.2, 0.3, 10.0}
	if row := got.Row(Wide); !reflect.DeepEqual(row, want) {
		t.Fatalf("Row(Wide) = %#v, want %#v", row, want)
	}
}

func TestParseDE_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		layout Layout
		fields []string
		want   error
	}{
		{"short dsrna", LayoutDSRNA, []string{"id", "1", "2", "3", "4"}, ErrShortRow},
		{"short gene", LayoutGene, []string{"id", "e", "s", "1", "2", "3", "4"}, ErrShortRow},
		{"NA padj", LayoutDSRNA, []string{"id", "1", "2", "3", "NA", "5"}, ErrMalformed},
		{"text log2fc", LayoutDSRNA, []string{"id", "abc", "2", "3", "4", "5"}, ErrMalformed},
		{"NaN", LayoutDSRNA, []string{"id", "NaN", "2", "3", "4", "5"}, ErrMalformed},
		{"Inf", LayoutDSRNA, []string{"id", "1", "Inf", "3", "4", "5"}, ErrMalformed},
		{"overflow", LayoutDSRNA, []string{"id", "1", "2", "1e400", "4", "5"}, ErrMalformed},
		{"empty id", LayoutDSRNA, []string{"", "1", "2", "3", "4", "5"}, ErrMalformed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDE(tt.layout, "x", "y", tt.fields)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseDE_GeneOptionalColumns(t *testing.T) {
	t.Parallel()

	got, err := ParseDE(LayoutGene, "ncRNA", "EV", []string{"r", "-", "NA", "1", "2", "3", "4", "5"})
	if err != nil {
		t.Fatalf("ParseDE error: %v", err)
	}
	if got.Symbol.Valid || got.EnsgID.Valid {
		t.Fatalf("placeholders should become NULL: %+v", got)
	}
}

func TestAnnotationRow(t *testing.T) {
	t.Parallel()

	a := Annotation{ID: "chr2:1-5", Symbol: "LOC1"}
	if got := a.Row(); !reflect.DeepEqual(got, []any{"chr2:1-5", "LOC1"}) {
		t.Fatalf("Row() = %#v", got)
	}
}
