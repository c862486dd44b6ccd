package ddl

import "strings"

// MapType maps a logical type string into a SQL Server column type.
//
// Text maps to NVARCHAR(450) rather than NVARCHAR(MAX) so that identifier and
// symbol columns stay indexable (index keys are capped at 900 bytes).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BIT"
	case "float", "double", "real":
		return "FLOAT"
	case "numeric", "decimal":
		return "DECIMAL(38, 10)"
	case "date":
		return "DATE"
	case "timestamp", "datetime", "timestamptz":
		return "DATETIME2"
	case "uuid":
		return "UNIQUEIDENTIFIER"
	case "longtext":
		return "NVARCHAR(MAX)"
	default:
		return "NVARCHAR(450)"
	}
}
