// Package query is the read side over a loaded database: DE lookups by gene
// symbol or significance, and the list of cell types per analysis.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v3"

	"deload/internal/ddl"
	"deload/internal/record"
	"deload/internal/schema"
	msddl "deload/internal/storage/mssql/ddl"
)

const (
	// DefaultThreshold is the padj cut-off used when no symbol is given.
	DefaultThreshold = 0.05
	// DefaultLimit and MaxLimit bound the number of hits returned.
	DefaultLimit = 100
	MaxLimit     = 1000
	// DefaultAnalysisType is assumed when a request names none.
	DefaultAnalysisType = "dsEER"
)

// ErrInvalidParams reports a request the store cannot answer.
var ErrInvalidParams = errors.New("invalid query parameters")

// Params select DE rows of one cell type.
type Params struct {
	AnalysisType string
	CellType     string
	// Symbol matches case-insensitively. For dsRNA analyses it is resolved
	// through anno; for gene analyses the row's own symbol or ensg_id match.
	Symbol string
	// Threshold applies to padj when Symbol is empty.
	Threshold float64
	Limit     int
}

// Hit is one DE row. Columns absent from the narrow schema stay null.
type Hit struct {
	AnalysisType null.String `db:"analysis_type" json:"analysis_type"`
	CellType     string      `db:"cell_type" json:"cell_type"`
	ID           string      `db:"id" json:"id"`
	Symbol       null.String `db:"symbol" json:"symbol"`
	EnsgID       null.String `db:"ensg_id" json:"ensg_id"`
	Log2FC       float64     `db:"log2fc" json:"log2FC"`
	LogCPM       null.Float  `db:"logcpm" json:"logCPM"`
	PValue       float64     `db:"pvalue" json:"pvalue"`
	PAdj         float64     `db:"padj" json:"padj"`
	BaseMean     float64     `db:"basemean" json:"baseMean"`
}

// Store runs queries against one database.
type Store struct {
	db    *sqlx.DB
	shape record.Shape
	quote func(string) string
}

// New returns a Store reading tables of the given shape.
func New(db *sqlx.DB, shape record.Shape) *Store {
	q := ddl.DoubleQuote
	if db.DriverName() == "sqlserver" {
		q = msddl.QuoteIdent
	}
	if shape == "" {
		shape = record.Narrow
	}
	return &Store{db: db, shape: shape, quote: q}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (p Params) normalize() (Params, error) {
	p.CellType = strings.TrimSpace(p.CellType)
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	p.AnalysisType = strings.TrimSpace(p.AnalysisType)
	if p.AnalysisType == "" {
		p.AnalysisType = DefaultAnalysisType
	}
	if p.CellType == "" {
		return p, fmt.Errorf("%w: cell type is required", ErrInvalidParams)
	}
	if p.Threshold <= 0 {
		p.Threshold = DefaultThreshold
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p, nil
}

// Search returns up to p.Limit hits ordered by padj. An unknown cell type
// yields an empty, non-nil slice.
func (s *Store) Search(ctx context.Context, p Params) ([]Hit, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}
	stmt, args := s.searchSQL(p)
	hits := []Hit{}
	if err := s.db.SelectContext(ctx, &hits, s.db.Rebind(stmt), args...); err != nil {
		return nil, fmt.Errorf("query: search: %w", err)
	}
	return hits, nil
}

func (s *Store) searchSQL(p Params) (string, []any) {
	q := s.quote
	col := func(alias, name, as string) string {
		return alias + "." + q(name) + " AS " + as
	}

	cols := []string{col("d", "id", "id"), col("d", "cell_type", "cell_type")}
	var where []string
	var args []any
	join := ""

	if s.shape == record.Wide {
		cols = append(cols,
			col("d", "analysis_type", "analysis_type"),
			col("d", "ensg_id", "ensg_id"),
			col("d", "log2fc", "log2fc"),
			col("d", "logcpm", "logcpm"),
			col("d", "pvalue", "pvalue"),
			col("d", "padj", "padj"),
			col("d", "basemean", "basemean"),
		)
		where = append(where, "d."+q("analysis_type")+" = ?")
		args = append(args, p.AnalysisType)
	} else {
		cols = append(cols,
			col("d", "log2FC", "log2fc"),
			col("d", "pvalue", "pvalue"),
			col("d", "padj", "padj"),
			col("d", "baseMean", "basemean"),
		)
	}
	where = append(where, "d."+q("cell_type")+" = ?")
	args = append(args, p.CellType)

	dsrna := record.InferLayout(p.AnalysisType) == record.LayoutDSRNA
	switch {
	case p.Symbol != "" && (dsrna || s.shape != record.Wide):
		join = " JOIN " + q(schema.AnnoTable) + " a ON a." + q("id") + " = d." + q("id")
		cols = append(cols, col("a", "symbol", "symbol"))
		where = append(where, "UPPER(a."+q("symbol")+") = ?")
		args = append(args, p.Symbol)
	case p.Symbol != "":
		cols = append(cols, col("d", "symbol", "symbol"))
		where = append(where, "(UPPER(d."+q("symbol")+") = ? OR UPPER(d."+q("ensg_id")+") = ?)")
		args = append(args, p.Symbol, p.Symbol)
	default:
		if s.shape == record.Wide {
			cols = append(cols, col("d", "symbol", "symbol"))
		}
		where = append(where, "d."+q("padj")+" < ?")
		args = append(args, p.Threshold)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM " + q(schema.DETable) + " d")
	sb.WriteString(join)
	sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	sb.WriteString(" ORDER BY d." + q("padj") + ", d." + q("id"))
	sb.WriteString(s.limit(p.Limit))
	return sb.String(), args
}

func (s *Store) limit(n int) string {
	if s.db.DriverName() == "sqlserver" {
		return fmt.Sprintf(" OFFSET 0 ROWS FETCH NEXT %d ROWS ONLY", n)
	}
	return fmt.Sprintf(" LIMIT %d", n)
}

// CellTypes lists the distinct cell types loaded for analysisType. The narrow
// schema has no analysis column, so analysisType is ignored there.
func (s *Store) CellTypes(ctx context.Context, analysisType string) ([]string, error) {
	q := s.quote
	stmt := "SELECT DISTINCT " + q("cell_type") + " FROM " + q(schema.DETable)
	var args []any
	if s.shape == record.Wide {
		if analysisType == "" {
			analysisType = DefaultAnalysisType
		}
		stmt += " WHERE " + q("analysis_type") + " = ?"
		args = append(args, analysisType)
	}
	stmt += " ORDER BY " + q("cell_type")

	out := []string{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(stmt), args...); err != nil {
		return nil, fmt.Errorf("query: cell types: %w", err)
	}
	return out, nil
}
