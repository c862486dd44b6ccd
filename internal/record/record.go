// Package record defines the two transient record kinds produced by the
// importers: annotation rows and differential-expression (DE) results.
//
// Records live only long enough to be rendered into a storage row; they carry
// no lifecycle beyond "parse, insert, drop".
package record

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

var (
	// ErrShortRow reports a line with fewer columns than the layout needs.
	ErrShortRow = errors.New("short row")
	// ErrMalformed reports a numeric column that does not parse.
	ErrMalformed = errors.New("malformed numeric field")
)

// Annotation maps a dsRNA identifier to a gene symbol.
type Annotation struct {
	ID     string
	Symbol string
}

// Row renders the annotation as (id, symbol).
func (a Annotation) Row() []any { return []any{a.ID, a.Symbol} }

// DEResult is one line of a differential-expression table.
type DEResult struct {
	AnalysisType string
	CellType     string
	ID           string
	Symbol       null.String
	EnsgID       null.String
	Log2FC       float64
	LogCPM       null.Float
	PValue       float64
	PAdj         float64
	BaseMean     float64
}

// Shape selects which projection of DEResult a table stores.
type Shape string

const (
	// Narrow is the embedded-database projection:
	// id, cell_type, log2FC, pvalue, padj, baseMean.
	Narrow Shape = "narrow"
	// Wide is the hosted-database projection that also carries the analysis
	// type, symbol, external gene id and logCPM.
	Wide Shape = "wide"
)

// Row renders r aligned to the column order of the given shape (see
// schema.DENarrow and schema.DEWide). NULL values become nil.
func (r DEResult) Row(s Shape) []any {
	if s == Wide {
		return []any{
			r.AnalysisType,
			r.CellType,
			r.ID,
			nullable(r.Symbol),
			nullable(r.EnsgID),
			r.Log2FC,
			nullableFloat(r.LogCPM),
			r.PValue,
			r.PAdj,
			r.BaseMean,
		}
	}
	return []any{r.ID, r.CellType, r.Log2FC, r.PValue, r.PAdj, r.BaseMean}
}

// Layout names the fixed column positions of a DE file.
type Layout string

const (
	// LayoutDSRNA is ID, log2FC, logCPM, pvalue, padj, baseMean.
	LayoutDSRNA Layout = "dsrna"
	// LayoutGene is raw_id, ENSG_ID, Symbol, log2FC, logCPM, pvalue, padj, baseMean.
	LayoutGene Layout = "gene"
)

// MinColumns is the number of columns a line must have for the layout.
func (l Layout) MinColumns() int {
	if l == LayoutGene {
		return 8
	}
	return 6
}

// Valid reports whether l is a known layout.
func (l Layout) Valid() bool { return l == LayoutDSRNA || l == LayoutGene }

// InferLayout picks the layout for an analysis type: dsRNA analyses
// ("dsEER", "dsRIP", ...) use LayoutDSRNA, everything else LayoutGene.
func InferLayout(analysisType string) Layout {
	if strings.HasPrefix(strings.ToLower(analysisType), "ds") {
		return LayoutDSRNA
	}
	return LayoutGene
}

// ParseDE builds a DEResult from the already split fields of one line.
// Every numeric field must parse as a finite float; otherwise the returned
// error wraps ErrMalformed and the caller drops the line.
func ParseDE(l Layout, analysisType, cellType string, fields []string) (DEResult, error) {
	if len(fields) < l.MinColumns() {
		return DEResult{}, fmt.Errorf("%w: got %d columns, want >= %d", ErrShortRow, len(fields), l.MinColumns())
	}

	r := DEResult{AnalysisType: analysisType, CellType: cellType, ID: fields[0]}

	var num []string
	switch l {
	case LayoutGene:
		r.EnsgID = optional(fields[1])
		r.Symbol = optional(fields[2])
		num = fields[3:8]
	default:
		num = fields[1:6]
	}

	vals := make([]float64, len(num))
	for i, s := range num {
		f, err := parseFinite(s)
		if err != nil {
			return DEResult{}, err
		}
		vals[i] = f
	}
	r.Log2FC = vals[0]
	r.LogCPM = null.FloatFrom(vals[1])
	r.PValue = vals[2]
	r.PAdj = vals[3]
	r.BaseMean = vals[4]

	if r.ID == "" {
		return DEResult{}, fmt.Errorf("%w: empty id", ErrMalformed)
	}
	return r, nil
}

// parseFinite rejects NA, NaN and ±Inf along with anything ParseFloat refuses.
func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrMalformed, s)
	}
	return f, nil
}

func optional(s string) null.String {
	if s == "" || s == "-" || strings.EqualFold(s, "NA") {
		return null.String{}
	}
	return null.StringFrom(s)
}

func nullable(s null.String) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func nullableFloat(f null.Float) any {
	if !f.Valid {
		return nil
	}
	return f.Float64
}
