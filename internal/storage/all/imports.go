// Package all wires all built-in storage backends into the storage factory.
//
// Importing it (even as a blank import) runs the init functions of each
// backend, which register their factories and DDL bootstrappers:
//
//   - "postgres" (rulecheck/internal/storage/postgres)
//   - "mssql"    (rulecheck/internal/storage/mssql)
//   - "mysql"    (rulecheck/internal/storage/mysql)
//   - "sqlite"   (rulecheck/internal/storage/sqlite)
//
// Typical usage (in cmd/rulecheck/main.go):
//
//	import _ "rulecheck/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: dsn, Table: "ACME_DATA", Columns: cols})
package all

import (
	_ "rulecheck/internal/storage/mssql"
	_ "rulecheck/internal/storage/mysql"
	_ "rulecheck/internal/storage/postgres"
	_ "rulecheck/internal/storage/sqlite"
)
