// Package ddl defines a small, backend-agnostic model for SQL DDL and the
// shared renderer the backend packages build on.
//
// A Style carries the dialect-specific bits (identifier quoting and logical
// type mapping). Backends that support IF NOT EXISTS use the renderers as is;
// others wrap the output in their own guard.
package ddl

import (
	"fmt"
	"strings"
)

// Style is the dialect-specific part of DDL rendering.
type Style struct {
	// Name prefixes error messages ("sqlite ddl: ...").
	Name string
	// QuoteIdent quotes one identifier segment.
	QuoteIdent func(string) string
	// MapType maps a logical type to a SQL column type.
	MapType func(string) string
	// IfNotExists adds IF NOT EXISTS to CREATE TABLE and CREATE INDEX.
	IfNotExists bool
}

// QuoteFQN quotes each dotted segment of a possibly schema-qualified name,
// dropping empty segments.
func (s Style) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, s.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

func (s Style) errorf(format string, args ...any) error {
	return fmt.Errorf(s.Name+" ddl: "+format, args...)
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...,
//	  [PRIMARY KEY (<pk-cols>)]
//	);
//
// The table name must be non-empty, at least one column is required and every
// column needs a name.
func (s Style) BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", s.errorf("table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", s.errorf("at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", s.errorf("column with empty name in table %s", fqn)
		}
		var sb strings.Builder
		sb.WriteString(s.QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(s.MapType(c.Type))
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
		if c.PrimaryKey {
			pks = append(pks, s.QuoteIdent(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s%s (\n  %s\n);",
		s.ifNotExists(), s.QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}

// BuildCreateIndexSQL renders CREATE INDEX [IF NOT EXISTS] <name> ON <table> (<cols>).
func (s Style) BuildCreateIndexSQL(ix IndexDef) (string, error) {
	if strings.TrimSpace(ix.Name) == "" {
		return "", s.errorf("index name must not be empty")
	}
	if strings.TrimSpace(ix.Table) == "" {
		return "", s.errorf("index %s: table must not be empty", ix.Name)
	}
	if len(ix.Columns) == 0 {
		return "", s.errorf("index %s: at least one column is required", ix.Name)
	}
	cols := make([]string, len(ix.Columns))
	for i, c := range ix.Columns {
		cols[i] = s.QuoteIdent(c)
	}
	return fmt.Sprintf("CREATE INDEX %s%s ON %s (%s);",
		s.ifNotExists(), s.QuoteIdent(ix.Name), s.QuoteFQN(ix.Table), strings.Join(cols, ", ")), nil
}

func (s Style) ifNotExists() string {
	if s.IfNotExists {
		return "IF NOT EXISTS "
	}
	return ""
}

// DoubleQuote is the ANSI identifier quoting shared by SQLite and Postgres.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
