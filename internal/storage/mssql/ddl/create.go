// Package ddl provides MSSQL-specific helpers for generating DDL from the
// generic ddl.TableDef model.
//
// T-SQL has no CREATE TABLE IF NOT EXISTS, so statements are wrapped in
// catalog guards:
//   - tables:  IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//   - indexes: IF NOT EXISTS (SELECT 1 FROM sys.indexes ...)
package ddl

import (
	"fmt"
	"strings"

	gddl "deload/internal/ddl"
)

// Style renders bracket-quoted T-SQL without IF NOT EXISTS.
var Style = gddl.Style{
	Name:       "mssql",
	QuoteIdent: QuoteIdent,
	MapType:    MapType,
}

// QuoteIdent quotes a single identifier segment using bracket syntax,
// escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// Dialect implements storage.Dialect for SQL Server.
type Dialect struct{}

// CreateTable returns a script of the form:
//
//	IF OBJECT_ID(N'[dbo].[anno]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[anno] (...);
//	END;
func (Dialect) CreateTable(t gddl.TableDef) (string, error) {
	stmt, err := Style.BuildCreateTableSQL(t)
	if err != nil {
		return "", err
	}
	fqn := Style.QuoteFQN(strings.TrimSpace(t.FQN))
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  %s\nEND;",
		nstring(fqn), indent(stmt)), nil
}

// CreateIndex guards CREATE INDEX with a sys.indexes lookup.
func (Dialect) CreateIndex(ix gddl.IndexDef) (string, error) {
	stmt, err := Style.BuildCreateIndexSQL(ix)
	if err != nil {
		return "", err
	}
	fqn := Style.QuoteFQN(strings.TrimSpace(ix.Table))
	return fmt.Sprintf(
		"IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'%s' AND object_id = OBJECT_ID(N'%s'))\nBEGIN\n  %s\nEND;",
		nstring(ix.Name), nstring(fqn), stmt), nil
}

// Truncate emits one TRUNCATE TABLE per table.
func (Dialect) Truncate(tables ...string) []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, "TRUNCATE TABLE "+Style.QuoteFQN(strings.TrimSpace(t))+";")
	}
	return out
}

// nstring escapes s for use inside an N'...' literal.
func nstring(s string) string { return strings.ReplaceAll(s, "'", "''") }

func indent(s string) string { return strings.ReplaceAll(s, "\n", "\n  ") }
