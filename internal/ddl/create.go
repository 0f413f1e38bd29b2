// Package ddl is a small model for SQL DDL plus a renderer for CREATE TABLE
// statements in each supported dialect. Table definitions are derived from
// rule sets so the load target can be created on first use.
package ddl

import (
	"fmt"
	"sort"
	"strings"
)

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement for t in
// dialect d.
//
//   - t.FQN must be non-empty; each column needs a Name and SQLType.
//   - Primary-key columns are always NOT NULL and rendered as a separate,
//     alphabetically sorted PRIMARY KEY clause.
//   - Identifiers are quoted for the dialect.
//   - SQL Server has no IF NOT EXISTS for tables, so the statement is guarded
//     by OBJECT_ID.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d, name)
		}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(d, name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, QuoteIdent(d, name))
		}
	}
	if len(pks) > 0 {
		sort.Strings(pks)
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := QuoteFQN(d, fqn)
	if d == MSSQL {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			strings.ReplaceAll(quoted, "'", "''"),
			quoted,
			strings.Join(cols, ",\n    "),
		), nil
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoted,
		strings.Join(cols, ",\n  "),
	), nil
}

// QuoteIdent quotes a single identifier segment for d.
func QuoteIdent(d Dialect, id string) string {
	switch d {
	case MSSQL:
		return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
	case MySQL:
		return "`" + strings.ReplaceAll(id, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
	}
}

// QuoteFQN quotes a possibly schema-qualified name segment by segment. Empty
// segments are dropped.
func QuoteFQN(d Dialect, fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, QuoteIdent(d, p))
	}
	return strings.Join(out, ".")
}
