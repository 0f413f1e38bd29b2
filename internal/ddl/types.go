package ddl

import (
	"fmt"

	"rulecheck/internal/rules"
)

// ColumnDef describes one column. Name is unquoted; quoting happens at
// render time. Default is a raw SQL expression.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name in dotted form ("schema.table") and its
// ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect selects identifier quoting, type names and the CREATE form.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MSSQL    Dialect = "mssql"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Field is the rule-level description of a destination column.
type Field struct {
	Name      string
	Type      rules.FieldType
	MaxLength int
	Mandatory bool
}

// MapType maps a rule type to a column type for d.
func MapType(d Dialect, t rules.FieldType, maxLength int) string {
	switch t {
	case rules.Int:
		if d == SQLite {
			return "INTEGER"
		}
		return "BIGINT"
	case rules.Float:
		switch d {
		case Postgres:
			return "DOUBLE PRECISION"
		case MSSQL:
			return "FLOAT"
		case MySQL:
			return "DOUBLE"
		default:
			return "REAL"
		}
	case rules.Date:
		if d == SQLite {
			return "TEXT"
		}
		return "DATE"
	case rules.String:
		switch {
		case d == SQLite:
			return "TEXT"
		case d == MSSQL && maxLength > 0 && maxLength <= 4000:
			return fmt.Sprintf("NVARCHAR(%d)", maxLength)
		case d == MSSQL:
			return "NVARCHAR(MAX)"
		case maxLength > 0 && maxLength <= 16383:
			return fmt.Sprintf("VARCHAR(%d)", maxLength)
		default:
			return "TEXT"
		}
	default:
		panic(fmt.Sprintf("ddl: unhandled field type %v", t))
	}
}

// FromFields builds a table definition for d. Mandatory fields are NOT NULL.
func FromFields(d Dialect, table string, fields []Field) TableDef {
	td := TableDef{FQN: table, Columns: make([]ColumnDef, 0, len(fields))}
	for _, f := range fields {
		td.Columns = append(td.Columns, ColumnDef{
			Name:     f.Name,
			SQLType:  MapType(d, f.Type, f.MaxLength),
			Nullable: !f.Mandatory,
		})
	}
	return td
}
