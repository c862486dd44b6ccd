// Package all wires all built-in storage backends into the storage factory.
//
// Importing it for side effects runs the init functions of each backend,
// which register their factories and DDL dialects with the storage package:
//
//   - "sqlite" and "libsql" (deload/internal/storage/sqlite)
//   - "postgres"            (deload/internal/storage/postgres)
//   - "mssql"               (deload/internal/storage/mssql)
//
// Typical usage in a wiring layer:
//
//	import _ "deload/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
//
// A binary that needs only a subset of backends can blank-import the backend
// packages directly instead.
package all

import (
	_ "deload/internal/storage/mssql"
	_ "deload/internal/storage/postgres"
	_ "deload/internal/storage/sqlite"
)
