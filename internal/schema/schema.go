// Package schema holds the table definitions the importers write and the
// query side reads.
package schema

import (
	"deload/internal/ddl"
	"deload/internal/record"
)

// Table names.
const (
	AnnoTable = "anno"
	DETable   = "de_results"
)

// Anno is anno(id, symbol), indexed on both columns for lookups in either
// direction.
func Anno() ddl.TableDef {
	return ddl.TableDef{
		FQN: AnnoTable,
		Columns: []ddl.ColumnDef{
			{Name: "id", Type: "text"},
			{Name: "symbol", Type: "text"},
		},
		Indexes: []ddl.IndexDef{
			{Name: "idx_anno_id", Table: AnnoTable, Columns: []string{"id"}},
			{Name: "idx_anno_symbol", Table: AnnoTable, Columns: []string{"symbol"}},
		},
	}
}

// DENarrow is the embedded-database projection of DE results. Column order
// matches record.DEResult.Row(record.Narrow).
func DENarrow() ddl.TableDef {
	return ddl.TableDef{
		FQN: DETable,
		Columns: []ddl.ColumnDef{
			{Name: "id", Type: "text"},
			{Name: "cell_type", Type: "text"},
			{Name: "log2FC", Type: "float"},
			{Name: "pvalue", Type: "float"},
			{Name: "padj", Type: "float"},
			{Name: "baseMean", Type: "float"},
		},
		Indexes: []ddl.IndexDef{
			{Name: "idx_de_cell_padj", Table: DETable, Columns: []string{"cell_type", "padj"}},
		},
	}
}

// DEWide is the hosted-database projection. Column order matches
// record.DEResult.Row(record.Wide).
func DEWide() ddl.TableDef {
	return ddl.TableDef{
		FQN: DETable,
		Columns: []ddl.ColumnDef{
			{Name: "analysis_type", Type: "text"},
			{Name: "cell_type", Type: "text"},
			{Name: "id", Type: "text"},
			{Name: "symbol", Type: "text", Nullable: true},
			{Name: "ensg_id", Type: "text", Nullable: true},
			{Name: "log2fc", Type: "float"},
			{Name: "logcpm", Type: "float", Nullable: true},
			{Name: "pvalue", Type: "float"},
			{Name: "padj", Type: "float"},
			{Name: "basemean", Type: "float"},
		},
		Indexes: []ddl.IndexDef{
			{Name: "idx_de_type_cell_padj", Table: DETable, Columns: []string{"analysis_type", "cell_type", "padj"}},
			{Name: "idx_de_symbol", Table: DETable, Columns: []string{"symbol"}},
		},
	}
}

// DE returns the DE table for a shape.
func DE(s record.Shape) ddl.TableDef {
	if s == record.Wide {
		return DEWide()
	}
	return DENarrow()
}

// Tables returns every table for a shape, annotation first.
func Tables(s record.Shape) []ddl.TableDef {
	return []ddl.TableDef{Anno(), DE(s)}
}
