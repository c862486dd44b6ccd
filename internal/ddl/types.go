package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Type: logical type ("text", "float", "int"); each backend maps it to a
//     concrete SQL type
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name (optionally schema-qualified, "schema.table")
// and an ordered list of columns. Column order is the order rows are rendered
// and copied in.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
	Indexes []IndexDef
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// IndexDef is a plain (non-unique) secondary index on Table.
type IndexDef struct {
	Name    string
	Table   string
	Columns []string
}
