// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import "strings"

// MapType maps a logical type string into a SQLite column type.
//
// SQLite uses type affinity, so the mapping prefers canonical affinities:
//   - integer-ish types -> INTEGER
//   - float-ish types   -> REAL
//   - others            -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint", "bool", "boolean":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	case "numeric", "decimal":
		return "NUMERIC"
	case "blob", "bytes":
		return "BLOB"
	default:
		return "TEXT"
	}
}
