// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:rulecheck.db?_pragma=busy_timeout(5000)"
	//   ":memory:"
	DSN string

	// Table is the target table name, e.g. "ACME_DATA". "main.ACME_DATA" is
	// accepted and quoted per segment.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string
}
