package ddl

import (
	"strings"

	gddl "deload/internal/ddl"
)

// Style renders Postgres DDL with double-quoted identifiers and IF NOT EXISTS.
// Quoting keeps mixed-case names such as "log2FC" intact.
var Style = gddl.Style{
	Name:        "postgres",
	QuoteIdent:  gddl.DoubleQuote,
	MapType:     MapType,
	IfNotExists: true,
}

// Dialect implements storage.Dialect for Postgres.
type Dialect struct{}

// CreateTable renders CREATE TABLE IF NOT EXISTS.
func (Dialect) CreateTable(t gddl.TableDef) (string, error) { return Style.BuildCreateTableSQL(t) }

// CreateIndex renders CREATE INDEX IF NOT EXISTS.
func (Dialect) CreateIndex(ix gddl.IndexDef) (string, error) { return Style.BuildCreateIndexSQL(ix) }

// Truncate empties all tables in one statement so foreign keys between them
// cannot block it.
func (Dialect) Truncate(tables ...string) []string {
	if len(tables) == 0 {
		return nil
	}
	q := make([]string, len(tables))
	for i, t := range tables {
		q[i] = Style.QuoteFQN(strings.TrimSpace(t))
	}
	return []string{"TRUNCATE TABLE " + strings.Join(q, ", ") + ";"}
}
