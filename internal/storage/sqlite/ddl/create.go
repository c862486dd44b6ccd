package ddl

import (
	"strings"

	gddl "deload/internal/ddl"
)

// Style renders SQLite DDL: double-quoted identifiers and IF NOT EXISTS
// guards on tables and indexes.
var Style = gddl.Style{
	Name:        "sqlite",
	QuoteIdent:  QuoteIdent,
	MapType:     MapType,
	IfNotExists: true,
}

// QuoteIdent double-quotes an identifier, escaping embedded quotes.
func QuoteIdent(id string) string { return gddl.DoubleQuote(id) }

// Dialect implements storage.Dialect for SQLite and libSQL.
type Dialect struct{}

// CreateTable renders CREATE TABLE IF NOT EXISTS.
func (Dialect) CreateTable(t gddl.TableDef) (string, error) { return Style.BuildCreateTableSQL(t) }

// CreateIndex renders CREATE INDEX IF NOT EXISTS.
func (Dialect) CreateIndex(ix gddl.IndexDef) (string, error) { return Style.BuildCreateIndexSQL(ix) }

// Truncate uses DELETE FROM since SQLite has no TRUNCATE; the truncate
// optimisation kicks in for an unqualified DELETE.
func (Dialect) Truncate(tables ...string) []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, "DELETE FROM "+Style.QuoteFQN(strings.TrimSpace(t))+";")
	}
	return out
}
