// Package dataset holds the in-memory tabular model that flows through a
// validation run: an ordered list of named columns whose cells are
// positionally aligned into rows.
//
// Column names are expected to be trimmed by the ingestion layer. Lookups that
// match rule names against columns go through NormalizeName so that
// " Order Date" and "orderdate" refer to the same column.
package dataset

import (
	"fmt"
	"strings"
)

// Column is a named, ordered sequence of cells.
type Column struct {
	Name   string
	Values []Value
}

// Dataset is an ordered set of columns. All columns have the same length.
type Dataset struct {
	cols []Column
	rows int
}

// New builds a Dataset from columns. It fails when column lengths disagree or
// two columns share the same exact name.
func New(cols ...Column) (*Dataset, error) {
	d := &Dataset{}
	for _, c := range cols {
		if err := d.Append(c.Name, c.Values); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MustNew is New for literals in tests and fixtures.
func MustNew(cols ...Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// FromStrings builds a Dataset from a header and string rows. Empty cells
// become Null; short rows are padded with Null.
func FromStrings(header []string, rows [][]string) *Dataset {
	cols := make([]Column, len(header))
	for i, h := range header {
		cols[i] = Column{Name: h, Values: make([]Value, len(rows))}
	}
	for r, row := range rows {
		for c := range cols {
			if c < len(row) && row[c] != "" {
				cols[c].Values[r] = String(row[c])
			}
		}
	}
	return &Dataset{cols: cols, rows: len(rows)}
}

// NormalizeName reduces a field or column name to its matching key: trimmed,
// lowercased and with internal spaces removed.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "")
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Width returns the number of columns.
func (d *Dataset) Width() int { return len(d.cols) }

// Names returns the column names in dataset order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in order. Callers must not modify the slices.
func (d *Dataset) Columns() []Column { return d.cols }

// Column returns the column with exactly the given name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Lookup returns the first column whose normalized name equals the normalized
// form of name.
func (d *Dataset) Lookup(name string) (Column, bool) {
	i := d.indexNormalized(name)
	if i < 0 {
		return Column{}, false
	}
	return d.cols[i], true
}

func (d *Dataset) indexNormalized(name string) int {
	key := NormalizeName(name)
	for i, c := range d.cols {
		if NormalizeName(c.Name) == key {
			return i
		}
	}
	return -1
}

// Append adds a new column at the end.
func (d *Dataset) Append(name string, values []Value) error {
	if len(d.cols) > 0 && len(values) != d.rows {
		return fmt.Errorf("dataset: column %q has %d rows, want %d", name, len(values), d.rows)
	}
	if _, dup := d.Column(name); dup {
		return fmt.Errorf("dataset: duplicate column %q", name)
	}
	if len(d.cols) == 0 {
		d.rows = len(values)
	}
	d.cols = append(d.cols, Column{Name: name, Values: values})
	return nil
}

// Set overwrites the column matching name (normalized) in place, or appends a
// new column when none matches. The existing column keeps its original name.
func (d *Dataset) Set(name string, values []Value) error {
	if i := d.indexNormalized(name); i >= 0 {
		if len(values) != d.rows {
			return fmt.Errorf("dataset: column %q has %d rows, want %d", name, len(values), d.rows)
		}
		d.cols[i].Values = values
		return nil
	}
	return d.Append(name, values)
}

// Rename applies old→new renames by exact column name. Unknown names are
// ignored. Renaming onto an existing different column is an error.
func (d *Dataset) Rename(m map[string]string) error {
	for i, c := range d.cols {
		to, ok := m[c.Name]
		if !ok || to == c.Name {
			continue
		}
		if _, taken := d.Column(to); taken {
			return fmt.Errorf("dataset: rename %q -> %q collides with an existing column", c.Name, to)
		}
		d.cols[i].Name = to
	}
	return nil
}

// DropRows removes the first n rows from every column.
func (d *Dataset) DropRows(n int) {
	if n <= 0 {
		return
	}
	if n > d.rows {
		n = d.rows
	}
	for i := range d.cols {
		d.cols[i].Values = d.cols[i].Values[n:]
	}
	d.rows -= n
}

// Row returns row r (0-based) as driver values in column order.
func (d *Dataset) Row(r int) []any {
	out := make([]any, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Values[r].Any()
	}
	return out
}

// Clone returns a deep copy whose columns can be modified independently.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{cols: make([]Column, len(d.cols)), rows: d.rows}
	for i, c := range d.cols {
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		out.cols[i] = Column{Name: c.Name, Values: vals}
	}
	return out
}
